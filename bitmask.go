package jubako

import "math/bits"

// bitmask256 represents a set of up to 256 component type IDs. Each bit
// corresponds to one ComponentTypeID; a set bit means the type is present.
// Entity groups compare these masks to decide superset membership.
type bitmask256 [4]uint64

// set enables the bit corresponding to the given component type ID.
func (m *bitmask256) set(bit ComponentTypeID) {
	i := bit >> 6 // (bit / 64) to find the uint64 index
	o := bit & 63 // (bit % 64) to find the bit offset
	m[i] |= uint64(1) << uint64(o)
}

// unset disables the bit corresponding to the given component type ID.
func (m *bitmask256) unset(bit ComponentTypeID) {
	i := bit >> 6
	o := bit & 63
	m[i] &= ^(uint64(1) << uint64(o))
}

// contains checks if all the bits set in `sub` are also set in the receiver.
// This is the superset test entity groups are built on.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// containsBit checks if a specific bit is set in the mask.
func (m bitmask256) containsBit(bit ComponentTypeID) bool {
	i := bit >> 6
	o := bit & 63
	return (m[i] & (uint64(1) << uint64(o))) != 0
}

// overlapCount counts the bits the receiver has in common with `other`.
func (m bitmask256) overlapCount(other bitmask256) int {
	return bits.OnesCount64(m[0]&other[0]) +
		bits.OnesCount64(m[1]&other[1]) +
		bits.OnesCount64(m[2]&other[2]) +
		bits.OnesCount64(m[3]&other[3])
}

// count reports the number of set bits.
func (m bitmask256) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// maskOfTypes builds a mask from a slice of component type IDs.
func maskOfTypes(ids []ComponentTypeID) bitmask256 {
	var m bitmask256
	for _, id := range ids {
		m.set(id)
	}
	return m
}

// maskOfComponents builds a mask from the types of a component id list.
func maskOfComponents(ids []ComponentID) bitmask256 {
	var m bitmask256
	for _, id := range ids {
		m.set(id.typeID)
	}
	return m
}
