package domain

import "maps"

// RelationKey names one of the six kinship slots of a lineage chart.
type RelationKey string

// Lineage slots, grandparents first.
const (
	RelationPaternalGrandFather RelationKey = "paternalGrandFather"
	RelationPaternalGrandMother RelationKey = "paternalGrandMother"
	RelationMaternalGrandFather RelationKey = "maternalGrandFather"
	RelationMaternalGrandMother RelationKey = "maternalGrandMother"
	RelationFather              RelationKey = "father"
	RelationMother              RelationKey = "mother"
)

var relationKeys = []RelationKey{
	RelationPaternalGrandFather,
	RelationPaternalGrandMother,
	RelationMaternalGrandFather,
	RelationMaternalGrandMother,
	RelationFather,
	RelationMother,
}

// RelationKeys returns the six slots in chart order.
func RelationKeys() []RelationKey {
	out := make([]RelationKey, len(relationKeys))
	copy(out, relationKeys)
	return out
}

// Valid reports whether k is one of the six lineage slots.
func (k RelationKey) Valid() bool {
	for _, candidate := range relationKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// Ancestor fills one lineage slot.
type Ancestor struct {
	ID       string      `json:"id"`
	Relation RelationKey `json:"relation"`
	Name     string      `json:"name"`
	Village  string      `json:"village"`
}

// LineageRecord maps each filled slot to its ancestor. Unset slots are
// absent from the map.
type LineageRecord map[RelationKey]Ancestor

// Slot returns the ancestor stored for key.
func (r LineageRecord) Slot(key RelationKey) (Ancestor, bool) {
	a, ok := r[key]
	return a, ok
}

// With returns a copy of r with key set to ancestor.
func (r LineageRecord) With(key RelationKey, ancestor Ancestor) LineageRecord {
	out := r.Clone()
	out[key] = ancestor
	return out
}

// Clone returns an independent copy of the record. A nil record clones to an
// empty one.
func (r LineageRecord) Clone() LineageRecord {
	out := make(LineageRecord, len(r))
	maps.Copy(out, r)
	return out
}

// Normalize drops entries whose key is not a lineage slot and forces each
// ancestor's relation to match its slot.
func (r LineageRecord) Normalize() LineageRecord {
	out := make(LineageRecord, len(r))
	for key, ancestor := range r {
		if !key.Valid() {
			continue
		}
		ancestor.Relation = key
		out[key] = ancestor
	}
	return out
}
