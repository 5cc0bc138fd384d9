package jubako

import "slices"

// TypeList is a normalized list of component type IDs used as group-matching
// criteria: sorted ascending with duplicates removed.
type TypeList []ComponentTypeID

// NewTypeList normalizes an unordered, possibly duplicated list of component
// type IDs into a TypeList. The input slice is not modified.
//
// Parameters:
//   - ids: The component type IDs, in any order, duplicates allowed.
//
// Returns:
//   - The sorted, duplicate-free TypeList.
func NewTypeList(ids ...ComponentTypeID) TypeList {
	list := slices.Clone(ids)
	slices.Sort(list)
	return TypeList(slices.Compact(list))
}

// mask returns the bitmask form of the list.
func (l TypeList) mask() bitmask256 {
	return maskOfTypes(l)
}
