package aslan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which arm of the Value tagged union is populated.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindSequence
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// OrderedMap is the concrete map representation backing Value's Map arm.
// Key order is first-seen insertion order, not sorted — this is what
// lets callers rely on property 2 (key insertion order).
type OrderedMap = orderedmap.OrderedMap[string, *Value]

// Value is a tagged union of {Null, Text, Sequence, Map}, the tree the
// parser builds as it consumes an ASLAN stream. The zero Value is Null.
type Value struct {
	kind Kind
	text string
	seq  []*Value
	m    *OrderedMap
}

// NullValue returns a Value representing explicit Null.
func NullValue() *Value {
	return &Value{kind: KindNull}
}

// TextValue returns a Value wrapping s.
func TextValue(s string) *Value {
	return &Value{kind: KindText, text: s}
}

// NewSequenceValue returns an empty Sequence Value.
func NewSequenceValue() *Value {
	return &Value{kind: KindSequence, seq: []*Value{}}
}

// NewMapValue returns an empty Map Value with an initialized ordered map.
func NewMapValue() *Value {
	return &Value{kind: KindMap, m: orderedmap.New[string, *Value]()}
}

// Kind reports which arm of the union v currently holds. A nil *Value
// reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

func (v *Value) IsNull() bool     { return v.Kind() == KindNull }
func (v *Value) IsText() bool     { return v.Kind() == KindText }
func (v *Value) IsSequence() bool { return v.Kind() == KindSequence }
func (v *Value) IsMap() bool      { return v.Kind() == KindMap }

// RawText returns the underlying string and true when v is a Text Value.
func (v *Value) RawText() (string, bool) {
	if v.Kind() != KindText {
		return "", false
	}
	return v.text, true
}

// Sequence returns the underlying slice and true when v is a Sequence
// Value. The returned slice is shared with v; callers must not mutate it.
func (v *Value) Sequence() ([]*Value, bool) {
	if v.Kind() != KindSequence {
		return nil, false
	}
	return v.seq, true
}

// Map returns the underlying ordered map and true when v is a Map
// Value. The returned map is shared with v; callers must not mutate it.
func (v *Value) Map() (*OrderedMap, bool) {
	if v.Kind() != KindMap {
		return nil, false
	}
	return v.m, true
}

// Get looks up key in v when v is a Map, returning (nil, false)
// otherwise or when the key is absent.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind() != KindMap {
		return nil, false
	}
	return v.m.Get(key)
}

// Index returns the element at i when v is a Sequence and i is in
// range, or (nil, false) otherwise.
func (v *Value) Index(i int) (*Value, bool) {
	if v.Kind() != KindSequence || i < 0 || i >= len(v.seq) {
		return nil, false
	}
	return v.seq[i], true
}

// Len reports the number of entries for Sequence and Map values, and 0
// for Null and Text.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindSequence:
		return len(v.seq)
	case KindMap:
		return v.m.Len()
	default:
		return 0
	}
}

// AsString coerces v to a string via spf13/cast, accepting any kind
// that cast can reasonably stringify (Text is returned verbatim; Null
// becomes "").
func (v *Value) AsString() (string, error) {
	if v.Kind() == KindNull {
		return "", nil
	}
	s, ok := v.RawText()
	if !ok {
		return "", fmt.Errorf("aslan: cannot coerce %s value to string", v.Kind())
	}
	return cast.ToStringE(s)
}

// AsInt coerces a Text value to an int via spf13/cast.
func (v *Value) AsInt() (int, error) {
	s, ok := v.RawText()
	if !ok {
		return 0, fmt.Errorf("aslan: cannot coerce %s value to int", v.Kind())
	}
	return cast.ToIntE(s)
}

// AsFloat64 coerces a Text value to a float64 via spf13/cast.
func (v *Value) AsFloat64() (float64, error) {
	s, ok := v.RawText()
	if !ok {
		return 0, fmt.Errorf("aslan: cannot coerce %s value to float64", v.Kind())
	}
	return cast.ToFloat64E(s)
}

// AsBool coerces a Text value to a bool via spf13/cast.
func (v *Value) AsBool() (bool, error) {
	s, ok := v.RawText()
	if !ok {
		return false, fmt.Errorf("aslan: cannot coerce %s value to bool", v.Kind())
	}
	return cast.ToBoolE(s)
}

// MarshalJSON renders v as JSON, preserving Map key insertion order.
// encoding/json's native map handling sorts keys alphabetically, which
// would violate the key-insertion-order property, so the tree is walked
// and serialized by hand; only leaf strings and keys are delegated to
// encoding/json for correct escaping.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *Value) writeJSON(buf *bytes.Buffer) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindText:
		b, err := json.Marshal(v.text)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSequence:
		buf.WriteByte('[')
		for i, e := range v.seq {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		i := 0
		for p := v.m.Oldest(); p != nil; p = p.Next() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(p.Key)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := p.Value.writeJSON(buf); err != nil {
				return err
			}
			i++
		}
		buf.WriteByte('}')
	}
	return nil
}

// toPlain converts v into native Go values (map[string]interface{},
// []interface{}, string, nil) suitable for repr.String. Map key order
// is not preserved here — GoString is for human inspection, not for
// round-tripping, and repr has no ordered-map notion.
func (v *Value) toPlain() interface{} {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindText:
		return v.text
	case KindSequence:
		out := make([]interface{}, len(v.seq))
		for i, e := range v.seq {
			out[i] = e.toPlain()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, v.m.Len())
		for p := v.m.Oldest(); p != nil; p = p.Next() {
			out[p.Key] = p.Value.toPlain()
		}
		return out
	default:
		return nil
	}
}

// GoString renders v for debugging via alecthomas/repr, which produces
// far more legible diffs than fmt's default %+v for nested trees.
func (v *Value) GoString() string {
	return repr.String(v.toPlain(), repr.Indent("  "))
}
