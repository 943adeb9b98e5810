package paramgraph

import (
	"fmt"

	"github.com/vk/paramgraph/internal/uncertain"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// RawValue is a typed raw field on a record: a plain number, a categorical
// string code, a boolean, or a number-with-uncertainty. It is a thin
// wrapper over cty.Value, the teacher's own representation for typed
// runner/asset inputs, so the registry's domain-resolution and decoding
// logic can reuse gocty the way internal/registry.ValidateRegistry does.
type RawValue struct {
	v cty.Value
}

var uncertainObjectType = cty.Object(map[string]cty.Type{
	"mean":   cty.Number,
	"stddev": cty.Number,
})

// RawString wraps a categorical code or other string field.
func RawString(s string) RawValue { return RawValue{v: cty.StringVal(s)} }

// RawNumber wraps a plain scalar with no associated uncertainty.
func RawNumber(f float64) RawValue { return RawValue{v: cty.NumberFloatVal(f)} }

// RawBool wraps a boolean field.
func RawBool(b bool) RawValue { return RawValue{v: cty.BoolVal(b)} }

// RawUncertain wraps a scalar with an associated standard deviation, as in
// scenario A's `m_raw = (10.0, 1.0)`.
func RawUncertain(mean, stddev float64) RawValue {
	return RawValue{v: cty.ObjectVal(map[string]cty.Value{
		"mean":   cty.NumberFloatVal(mean),
		"stddev": cty.NumberFloatVal(stddev),
	})}
}

// IsNull reports whether the raw value is unset.
func (r RawValue) IsNull() bool { return r.v == cty.NilVal || r.v.IsNull() }

// AsUncertain decodes the raw value as an UncertainValue. A plain number
// decodes with Stddev = 0; an object with mean/stddev attributes decodes
// both; anything else is an error.
func (r RawValue) AsUncertain() (UncertainValue, error) {
	switch {
	case r.v == cty.NilVal || r.v.IsNull():
		return UncertainValue{}, fmt.Errorf("raw value is null")
	case r.v.Type().Equals(cty.Number):
		var f float64
		if err := gocty.FromCtyValue(r.v, &f); err != nil {
			return UncertainValue{}, err
		}
		return uncertain.Of(f, 0), nil
	case r.v.Type().IsObjectType() && r.v.Type().Equals(uncertainObjectType):
		var decoded struct {
			Mean   float64 `cty:"mean"`
			Stddev float64 `cty:"stddev"`
		}
		if err := gocty.FromCtyValue(r.v, &decoded); err != nil {
			return UncertainValue{}, err
		}
		return uncertain.Of(decoded.Mean, decoded.Stddev), nil
	default:
		return UncertainValue{}, fmt.Errorf("raw value of type %s is not numeric", r.v.Type().FriendlyName())
	}
}

// AsString decodes the raw value as a string.
func (r RawValue) AsString() (string, error) {
	if r.v == cty.NilVal || r.v.IsNull() || !r.v.Type().Equals(cty.String) {
		return "", fmt.Errorf("raw value is not a string")
	}
	return r.v.AsString(), nil
}

// String renders the raw value for diagnostic input summaries.
func (r RawValue) String() string {
	if r.v == cty.NilVal || r.v.IsNull() {
		return "<null>"
	}
	if u, err := r.AsUncertain(); err == nil {
		return fmt.Sprintf("%g±%g", u.Mean, u.Stddev)
	}
	if s, err := r.AsString(); err == nil {
		return s
	}
	return r.v.GoString()
}

// RawSeries wraps an ordered list of per-layer values, used when a
// Slab-level method requires a Layer-level parameter: the orchestrator
// gathers that parameter's computed value across every sub-record into one
// series input (spec §4.5's "target's own inputs are all layer-level"
// convention, §9 open question 3).
func RawSeries(values []UncertainValue) RawValue {
	elems := make([]cty.Value, len(values))
	for i, v := range values {
		elems[i] = cty.ObjectVal(map[string]cty.Value{
			"mean":   cty.NumberFloatVal(v.Mean),
			"stddev": cty.NumberFloatVal(v.Stddev),
		})
	}
	if len(elems) == 0 {
		return RawValue{v: cty.EmptyTupleVal}
	}
	return RawValue{v: cty.TupleVal(elems)}
}

// AsUncertainSeries decodes a RawSeries back into its per-layer values.
func (r RawValue) AsUncertainSeries() ([]UncertainValue, error) {
	if r.v == cty.NilVal || r.v.IsNull() || !r.v.Type().IsTupleType() {
		return nil, fmt.Errorf("raw value is not a series")
	}
	var out []UncertainValue
	it := r.v.ElementIterator()
	for it.Next() {
		_, elem := it.Element()
		var decoded struct {
			Mean   float64 `cty:"mean"`
			Stddev float64 `cty:"stddev"`
		}
		if err := gocty.FromCtyValue(elem, &decoded); err != nil {
			return nil, err
		}
		out = append(out, uncertain.Of(decoded.Mean, decoded.Stddev))
	}
	return out, nil
}

// SubRecord is one layer of a Record: raw fields plus computed parameter
// slots, initially empty. Parameter slots are filled in during a pathway
// execution; a layer is shared by reference until a pathway writes to it
// (spec §5 copy-on-write rule).
type SubRecord struct {
	Raw      map[string]RawValue
	Computed map[string]UncertainValue
}

// NewSubRecord constructs a layer from its raw fields.
func NewSubRecord(raw map[string]RawValue) *SubRecord {
	if raw == nil {
		raw = map[string]RawValue{}
	}
	return &SubRecord{Raw: raw, Computed: map[string]UncertainValue{}}
}

// Clone returns a deep-enough copy of the layer for copy-on-write: its own
// maps, so writes to the clone never affect the original.
func (s *SubRecord) Clone() *SubRecord {
	raw := make(map[string]RawValue, len(s.Raw))
	for k, v := range s.Raw {
		raw[k] = v
	}
	computed := make(map[string]UncertainValue, len(s.Computed))
	for k, v := range s.Computed {
		computed[k] = v
	}
	return &SubRecord{Raw: raw, Computed: computed}
}

// Record is an ordered list of sub-records plus record-level (Slab) raw
// fields and computed parameter slots.
type Record struct {
	Layers   []*SubRecord
	Raw      map[string]RawValue
	Computed map[string]UncertainValue
}

// NewRecord constructs a record from its layers and record-level raw
// fields.
func NewRecord(layers []*SubRecord, raw map[string]RawValue) *Record {
	if raw == nil {
		raw = map[string]RawValue{}
	}
	return &Record{Layers: layers, Raw: raw, Computed: map[string]UncertainValue{}}
}

// cloneShell returns a new Record that shares the input's layers by
// reference and copies only the record-level computed slots. The
// orchestrator replaces individual layers with clones as it writes to them.
func (r *Record) cloneShell() *Record {
	layers := make([]*SubRecord, len(r.Layers))
	copy(layers, r.Layers)
	computed := make(map[string]UncertainValue, len(r.Computed))
	for k, v := range r.Computed {
		computed[k] = v
	}
	return &Record{Layers: layers, Raw: r.Raw, Computed: computed}
}
