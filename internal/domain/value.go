package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Field is one key/value pair of a decoded JSON object.
type Field struct {
	Key   string
	Value any
}

// Object is a decoded JSON object that keeps its iteration order. Integer-like
// keys come first in ascending order, then the rest in insertion order, which
// is the order a browser reports for Object.values.
type Object []Field

// Values returns the field values in iteration order.
func (o Object) Values() []any {
	out := make([]any, len(o))
	for i, f := range o {
		out[i] = f.Value
	}
	return out
}

// Keys returns the field keys in iteration order.
func (o Object) Keys() []string {
	out := make([]string, len(o))
	for i, f := range o {
		out[i] = f.Key
	}
	return out
}

// DecodeValue decodes a single JSON document into nil, bool, json.Number,
// string, []any or Object.
func DecodeValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '[':
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	case '{':
		obj := Object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, not string", keyTok)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj = obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj.ordered(), nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// set keeps the first position of a duplicated key and the last value.
func (o Object) set(key string, v any) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = v
			return o
		}
	}
	return append(o, Field{Key: key, Value: v})
}

func (o Object) ordered() Object {
	var indexed, named Object
	for _, f := range o {
		if _, ok := arrayIndex(f.Key); ok {
			indexed = append(indexed, f)
		} else {
			named = append(named, f)
		}
	}
	if len(indexed) == 0 {
		return o
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		a, _ := arrayIndex(indexed[i].Key)
		b, _ := arrayIndex(indexed[j].Key)
		return a < b
	})
	return append(indexed, named...)
}

// arrayIndex reports whether key is a canonical array index (0 .. 2^32-2).
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil || n >= math.MaxUint32 {
		return 0, false
	}
	return n, true
}

// Stringify converts a decoded value to the text a browser shows for
// String(value).
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case json.Number:
		return formatNumber(t)
	case []any:
		parts := make([]string, len(t))
		for i, elem := range t {
			if elem == nil {
				continue
			}
			parts[i] = Stringify(elem)
		}
		return strings.Join(parts, ",")
	case Object:
		return "[object Object]"
	default:
		return fmt.Sprint(t)
	}
}

// Truthy mirrors the falsy set of JSON values: null, false, "", 0.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !math.IsInf(f, 0) {
			return true
		}
		return f != 0
	default:
		return true
	}
}

func formatNumber(n json.Number) string {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil && !math.IsInf(f, 0) {
		return string(n)
	}
	return FormatNumber(f)
}

// FormatNumber renders f the way JavaScript's Number#toString does.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + exp[:1] + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
