// Package frid implements the FRID value taxonomy: a closed, self-describing
// universe of values (primitives, dates, blobs, arrays, maps, and named
// constructors) shared by the codec (strops, chrono, pretty, dumper, loader)
// and the value-store engine (kvs and its backends).
package frid

import (
	"fmt"
	"math"
	"time"
)

// Kind is the tag of a Value's single variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindText
	KindBlob
	KindDate
	KindTime
	KindDateTime
	KindArray
	KindMapping
	KindNamed
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	case KindArray:
		return "array"
	case KindMapping:
		return "mapping"
	case KindNamed:
		return "named"
	default:
		return "unknown"
	}
}

// Value is the closed sum type of §3: exactly one of its fields is
// meaningful, as selected by Kind. Zero value is KindNull.
type Value struct {
	kind Kind

	b bool
	i int64
	r float64
	s string
	x []byte

	date     DateValue
	time     TimeValue
	datetime DateTimeValue

	arr   []Value
	mp    *Mapping
	named *Named
}

// DateValue is a calendar date; it carries no timezone offset.
type DateValue struct {
	Year, Month, Day int
}

// TimeValue is a time-of-day with optional sub-second precision and
// timezone offset. HasOffset distinguishes "no timezone" from UTC
// (OffsetMinutes == 0 && IsUTC).
type TimeValue struct {
	Hour, Minute, Second, Nanosecond int
	HasOffset                        bool
	IsUTC                            bool
	OffsetMinutes                    int
}

// DateTimeValue combines DateValue and TimeValue.
type DateTimeValue struct {
	Date DateValue
	Time TimeValue
}

// Mapping is an ordered string-keyed map. Insertion order is observable via
// Keys() but is not semantically significant for Equal.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping returns an empty, ready-to-use Mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Set inserts or replaces the value for key, preserving first-insertion
// order. Duplicate Set calls for an existing key do not move it.
func (m *Mapping) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value for key and whether it was present.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes key, returning whether it was present.
func (m *Mapping) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// Clone returns a deep-enough copy (values are copied by value, nested
// containers keep their own Clone semantics).
func (m *Mapping) Clone() *Mapping {
	out := NewMapping()
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// Named is the constructor-like node: a name plus positional and keyword
// arguments.
type Named struct {
	Name     string
	Args     []Value
	KeyWords *Mapping
}

// Constructors for each variant.

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Real(r float64) Value { return Value{kind: KindReal, r: r} }

func Text(s string) Value { return Value{kind: KindText, s: s} }

func Blob(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBlob, x: cp}
}

func Date(d DateValue) Value { return Value{kind: KindDate, date: d} }

func Time(t TimeValue) Value { return Value{kind: KindTime, time: t} }

func DateTime(dt DateTimeValue) Value { return Value{kind: KindDateTime, datetime: dt} }

func Array(vs []Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindArray, arr: cp}
}

func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, mp: m}
}

func NewNamed(name string, args []Value, kw *Mapping) Value {
	if kw == nil {
		kw = NewMapping()
	}
	return Value{kind: KindNamed, named: &Named{Name: name, Args: args, KeyWords: kw}}
}

// Accessors. Each panics if called against the wrong Kind; callers that do
// not already know the Kind should switch on Kind() first.

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() bool { v.mustBe(KindBool); return v.b }

func (v Value) Int() int64 { v.mustBe(KindInt); return v.i }

func (v Value) Real() float64 { v.mustBe(KindReal); return v.r }

func (v Value) Text() string { v.mustBe(KindText); return v.s }

func (v Value) Blob() []byte { v.mustBe(KindBlob); return v.x }

func (v Value) Date() DateValue { v.mustBe(KindDate); return v.date }

func (v Value) Time() TimeValue { v.mustBe(KindTime); return v.time }

func (v Value) DateTime() DateTimeValue { v.mustBe(KindDateTime); return v.datetime }

func (v Value) Array() []Value { v.mustBe(KindArray); return v.arr }

func (v Value) Mapping() *Mapping { v.mustBe(KindMapping); return v.mp }

func (v Value) Named() *Named { v.mustBe(KindNamed); return v.named }

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("frid: value is %s, not %s", v.kind, k))
	}
}

// Equal reports structural equality. Real NaN is equal to itself here
// (unlike IEEE 754) since the round-trip law of spec.md §8 is stated
// "modulo Real NaN identity". Mapping key order is ignored.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindReal:
		if math.IsNaN(a.r) && math.IsNaN(b.r) {
			return true
		}
		return a.r == b.r
	case KindText:
		return a.s == b.s
	case KindBlob:
		if len(a.x) != len(b.x) {
			return false
		}
		for i := range a.x {
			if a.x[i] != b.x[i] {
				return false
			}
		}
		return true
	case KindDate:
		return a.date == b.date
	case KindTime:
		return a.time == b.time
	case KindDateTime:
		return a.datetime == b.datetime
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if a.mp.Len() != b.mp.Len() {
			return false
		}
		for _, k := range a.mp.Keys() {
			av, _ := a.mp.Get(k)
			bv, ok := b.mp.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindNamed:
		if a.named.Name != b.named.Name || len(a.named.Args) != len(b.named.Args) {
			return false
		}
		for i := range a.named.Args {
			if !Equal(a.named.Args[i], b.named.Args[i]) {
				return false
			}
		}
		return Equal(Map(a.named.KeyWords), Map(b.named.KeyWords))
	default:
		return false
	}
}

// AsTime converts a TimeValue to the stdlib time.Time on the zero date, for
// arithmetic convenience outside this package (chrono and dumper use the
// fields directly rather than round-tripping through time.Time).
func (t TimeValue) AsTime() time.Time {
	loc := time.UTC
	if t.HasOffset && !t.IsUTC {
		loc = time.FixedZone("", t.OffsetMinutes*60)
	}
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, t.Nanosecond, loc)
}
