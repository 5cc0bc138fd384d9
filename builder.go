package jubako

// Builder stages initial components before atomic entity creation. Staged
// values are held outside the container; nothing is locked until Build.
type Builder struct {
	container *Container
	staged    []StagedComponent
}

// With stages a component value. Staging a second value of a type already
// staged replaces the first: the last write per type wins.
//
// Example:
//
//	id := container.EntityBuilder().
//	    With(jubako.Staged(Position{X: 1})).
//	    With(jubako.Staged(Velocity{VX: 2})).
//	    Build()
func (b *Builder) With(component StagedComponent) *Builder {
	for i := range b.staged {
		if b.staged[i].typeID == component.typeID {
			b.staged[i] = component
			return b
		}
	}
	b.staged = append(b.staged, component)
	return b
}

// Build locks the container, creates the entity with the staged components as
// one atomic operation and returns its id. Building with no staged components
// creates an empty entity.
func (b *Builder) Build() EntityID {
	guard := b.container.Lock()
	defer guard.Unlock()
	return guard.AddEntity(b.staged...)
}
