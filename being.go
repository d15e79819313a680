package frid

// Being is the sentinel pair used by the store engine to distinguish "no
// value here" (Missing) from "leave the value as is" (Present) — both
// distinct from the FRID Null value, which is a real, storable value.
// Grounded on original_source/frid/typing.py's FridBeing singleton class.
type Being struct {
	present bool
}

var (
	// Present means "the existing value, unchanged" — used as a
	// read-modify-write result to signal "no-op, keep what's there".
	Present = Being{present: true}
	// Missing means "no value" — distinct from Value{} / Null(), which is
	// a legitimate stored value.
	Missing = Being{present: false}
)

func (b Being) String() string {
	if b.present {
		return "PRESENT"
	}
	return "MISSING"
}

// IsPresent reports whether b is the Present sentinel.
func (b Being) IsPresent() bool { return b.present }

// IsMissing reports whether b is the Missing sentinel.
func (b Being) IsMissing() bool { return !b.present }

// Opt is a tri-state container over a Value: either a concrete Value, or
// one of the two Being sentinels. Store read paths return Opt so callers
// can distinguish "found Null" from "not found" from "found, no change".
type Opt struct {
	value  Value
	being  Being
	isBeng bool
}

// OptValue wraps a concrete value.
func OptValue(v Value) Opt { return Opt{value: v} }

// OptMissing returns the MISSING sentinel as an Opt.
func OptMissing() Opt { return Opt{being: Missing, isBeng: true} }

// OptPresent returns the PRESENT sentinel as an Opt.
func OptPresent() Opt { return Opt{being: Present, isBeng: true} }

// IsBeing reports whether o holds a sentinel rather than a value.
func (o Opt) IsBeing() bool { return o.isBeng }

// Being returns the held sentinel; valid only if IsBeing is true.
func (o Opt) Being() Being { return o.being }

// Value returns the held value; valid only if IsBeing is false.
func (o Opt) Value() Value { return o.value }

// IsMissing reports whether o is the MISSING sentinel.
func (o Opt) IsMissing() bool { return o.isBeng && o.being.IsMissing() }
