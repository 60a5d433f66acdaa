package envelope

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/KarpelesLab/swiftrest/resterror"
)

// Kind discriminates the JSON value variants.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is a schema-free JSON tree node. It is an explicit tagged union so
// traversal stays type-safe without resorting to interface{} plumbing at the
// call sites. A Value is immutable once built.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  map[string]Value
}

// Unmarshal decodes raw JSON bytes into a Value tree. Numbers are kept as
// json.Number so large integers survive untouched.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, err
	}
	return fromAny(raw), nil
}

func fromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{kind: KindNull}
	case bool:
		return Value{kind: KindBool, b: v}
	case json.Number:
		return Value{kind: KindNumber, num: v}
	case string:
		return Value{kind: KindString, str: v}
	case []any:
		arr := make([]Value, len(v))
		for i, item := range v {
			arr[i] = fromAny(item)
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(v))
		for k, item := range v {
			obj[k] = fromAny(item)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		// json.Decoder never produces other types
		return Value{kind: KindNull}
	}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null (or the zero Value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload. ok is false on a kind mismatch.
func (v Value) Bool() (value, ok bool) {
	return v.b, v.kind == KindBool
}

// String returns the string payload. ok is false on a kind mismatch.
func (v Value) String() (string, bool) {
	return v.str, v.kind == KindString
}

// Int64 returns the numeric payload as an integer.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float64 returns the numeric payload as a float.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Len returns the element count of an array or member count of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// Field returns the named object member.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	item, ok := v.obj[key]
	return item, ok
}

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Get descends the tree following a slash-separated path. Object segments
// select members, numeric segments select array elements. Any missing key,
// out-of-range index or kind mismatch yields ok=false; Get never panics.
func (v Value) Get(path string) (Value, bool) {
	cur := v
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, "/") {
		switch cur.kind {
		case KindObject:
			next, ok := cur.Field(seg)
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			i, err := strconv.Atoi(seg)
			if err != nil {
				return Value{}, false
			}
			next, ok := cur.Index(i)
			if !ok {
				return Value{}, false
			}
			cur = next
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// GetString is a convenience path accessor for string leaves.
func (v Value) GetString(path string) (string, bool) {
	item, ok := v.Get(path)
	if !ok {
		return "", false
	}
	return item.String()
}

// GetInt64 is a convenience path accessor for integer leaves.
func (v Value) GetInt64(path string) (int64, bool) {
	item, ok := v.Get(path)
	if !ok {
		return 0, false
	}
	return item.Int64()
}

// Interface converts the tree back into plain Go values (json.Number for
// numbers), mainly for feeding weakly-typed decoders.
func (v Value) Interface() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	default:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	}
}

// Decode maps the value onto target using json field names, converting
// weakly typed members (json.Number into int fields and similar) along the
// way.
func (v Value) Decode(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return resterror.Decoding(err)
	}
	if err := dec.Decode(v.Interface()); err != nil {
		return resterror.Decoding(err)
	}
	return nil
}
