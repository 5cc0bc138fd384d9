package jubako

import "github.com/rs/zerolog"

// logEntityEvent renders one structural event at trace level: the event kind,
// the entity, the affected component type and the entity's component types as
// an array of dicts.
func logEntityEvent(logger *zerolog.Logger, event EntityEvent) {
	e := logger.Trace()
	if e == nil {
		return
	}

	componentArr := zerolog.Arr()
	for _, id := range event.ComponentIDs {
		componentArr = componentArr.Dict(zerolog.Dict().
			Int("component_type_id", int(id.typeID)).
			Str("component_type", typeNameOf(id.typeID)))
	}

	e = e.Str("event", event.Kind.String()).
		Stringer("entity_id", event.EntityID)
	if !event.ComponentID.IsZero() {
		e = e.Str("component_type", typeNameOf(event.ComponentID.typeID))
	}
	e.Int("total_components", len(event.ComponentIDs)).
		Array("components", componentArr).
		Msg("entity container modified")
}
