package memo

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// KeyFunc derives a cache key from a call's argument list.
//
// Contract:
//   - Determinism: equal argument lists must produce equal keys. A KeyFunc
//     that violates this makes the Memoizer serve wrong results.
//   - The returned key must be comparable (usable as a map key).
//   - Concurrency: must be safe for concurrent use.
type KeyFunc func(args []any) (any, error)

// FirstArg uses the single argument itself as the key.
// It is the default KeyFunc and fails with ErrArity for any other arity.
func FirstArg(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrArity, len(args))
	}
	return args[0], nil
}

// Join returns a KeyFunc that formats each argument with fmt.Sprint and joins
// them with sep, so (3, 5) becomes "3,5" for sep ",".
//
// The key is order sensitive and ambiguous when an argument's text contains
// sep, and it cannot tell 3 from "3". Prefer Tuple or Canonical.
func Join(sep string) KeyFunc {
	return func(args []any) (any, error) {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = fmt.Sprint(arg)
		}
		return strings.Join(parts, sep), nil
	}
}

// tuple is one cell of a structural key. Cells nest through tail, so the
// whole key compares by value, element by element, including dynamic types.
type tuple struct {
	head any
	tail any
}

// endOfTuple terminates a tuple chain and is the key for an empty argument list.
type endOfTuple struct{}

// stringed is the key part used for a non-comparable fmt.Stringer argument.
type stringed struct {
	typ reflect.Type
	s   string
}

// Tuple builds a structural key compared by value. Arguments of different
// dynamic types never collide, and separators cannot be confused with data.
//
// A non-comparable argument (slice, map, func, or a struct holding one) falls
// back to its String form when it implements fmt.Stringer; otherwise Tuple
// fails with ErrUncomparableArg.
func Tuple(args []any) (any, error) {
	var key any = endOfTuple{}
	for i := len(args) - 1; i >= 0; i-- {
		part, err := tuplePart(args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		key = tuple{head: part, tail: key}
	}
	return key, nil
}

func tuplePart(arg any) (any, error) {
	if isComparable(arg) {
		return arg, nil
	}
	if s, ok := arg.(fmt.Stringer); ok {
		return stringed{typ: reflect.TypeOf(arg), s: s.String()}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUncomparableArg, arg)
}

// Canonical encodes the argument list as deterministic JSON text, tagging
// every value with its Go type: (3, "a") becomes [["int",3],["string","a"]].
// Nested values are tagged too, so 3 and 3.0 inside a []any stay distinct.
//
// Maps are written as key/value pairs sorted by their encoding, so maps and
// slices may be used as arguments. Pointers are followed. Structs are
// encoded field by field and must have only exported fields unless they
// implement json.Marshaler, whose output then stands for the value.
// Funcs, channels, NaN and infinite floats fail with ErrUnencodableArg.
func Canonical(args []any) (any, error) {
	buf := []byte{'['}
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendCanonical(buf, reflect.ValueOf(arg), 0)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	buf = append(buf, ']')
	return string(buf), nil
}

// Digest wraps a string-producing KeyFunc and replaces its key with the
// SHA-256 of that key, keeping long keys at a fixed size.
func Digest(kf KeyFunc) KeyFunc {
	return func(args []any) (any, error) {
		key, err := kf(args)
		if err != nil {
			return nil, err
		}
		s, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotString, key)
		}
		sum := sha256.Sum256([]byte(s))
		return "sha256:" + hex.EncodeToString(sum[:]), nil
	}
}

// maxCanonicalDepth bounds recursion through pointers and containers.
const maxCanonicalDepth = 64

var jsonMarshalerType = reflect.TypeFor[json.Marshaler]()

// appendCanonical appends v as a ["type",payload] pair.
func appendCanonical(buf []byte, v reflect.Value, depth int) ([]byte, error) {
	if depth > maxCanonicalDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnencodableArg, maxCanonicalDepth)
	}
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return append(buf, `["<nil>",null]`...), nil
	}

	buf = append(buf, '[')
	buf = appendJSONString(buf, typeName(v.Type()))
	buf = append(buf, ',')
	buf, err := appendPayload(buf, v, depth)
	if err != nil {
		return nil, err
	}
	return append(buf, ']'), nil
}

func appendPayload(buf []byte, v reflect.Value, depth int) ([]byte, error) {
	if v.Type().Implements(jsonMarshalerType) && v.CanInterface() {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return append(buf, "null"...), nil
		}
		data, err := v.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnencodableArg, v.Type(), err)
		}
		return append(buf, data...), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return strconv.AppendBool(buf, v.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.AppendInt(buf, v.Int(), 10), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.AppendUint(buf, v.Uint(), 10), nil

	case reflect.Float32, reflect.Float64:
		return appendFloat(buf, v.Float(), v.Type().Bits())

	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		bits := v.Type().Bits() / 2
		var err error
		buf, err = appendFloat(append(buf, '['), real(c), bits)
		if err != nil {
			return nil, err
		}
		buf = append(buf, ',')
		buf, err = appendFloat(buf, imag(c), bits)
		if err != nil {
			return nil, err
		}
		return append(buf, ']'), nil

	case reflect.String:
		return appendJSONString(buf, v.String()), nil

	case reflect.Pointer:
		if v.IsNil() {
			return append(buf, "null"...), nil
		}
		return appendCanonical(buf, v.Elem(), depth+1)

	case reflect.Slice:
		if v.IsNil() {
			return append(buf, "null"...), nil
		}
		return appendElems(buf, v, depth)

	case reflect.Array:
		return appendElems(buf, v, depth)

	case reflect.Map:
		if v.IsNil() {
			return append(buf, "null"...), nil
		}
		return appendMap(buf, v, depth)

	case reflect.Struct:
		return appendStruct(buf, v, depth)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnencodableArg, v.Type())
	}
}

func appendFloat(buf []byte, f float64, bits int) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", ErrUnencodableArg, f)
	}
	if f == 0 {
		f = 0 // -0 == 0
	}
	return strconv.AppendFloat(buf, f, 'g', -1, bits), nil
}

func appendElems(buf []byte, v reflect.Value, depth int) ([]byte, error) {
	buf = append(buf, '[')
	for i := range v.Len() {
		if i > 0 {
			buf = append(buf, ',')
		}
		var err error
		buf, err = appendCanonical(buf, v.Index(i), depth+1)
		if err != nil {
			return nil, err
		}
	}
	return append(buf, ']'), nil
}

func appendMap(buf []byte, v reflect.Value, depth int) ([]byte, error) {
	type pair struct{ k, v []byte }

	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := appendCanonical(nil, iter.Key(), depth+1)
		if err != nil {
			return nil, err
		}
		val, err := appendCanonical(nil, iter.Value(), depth+1)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{k: k, v: val})
	}
	slices.SortFunc(pairs, func(a, b pair) int { return bytes.Compare(a.k, b.k) })

	buf = append(buf, '[')
	for i, p := range pairs {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		buf = append(buf, p.k...)
		buf = append(buf, ',')
		buf = append(buf, p.v...)
		buf = append(buf, ']')
	}
	return append(buf, ']'), nil
}

func appendStruct(buf []byte, v reflect.Value, depth int) ([]byte, error) {
	t := v.Type()
	buf = append(buf, '{')
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, fmt.Errorf("%w: %s has unexported field %s", ErrUnencodableArg, t, f.Name)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, f.Name)
		buf = append(buf, ':')
		var err error
		buf, err = appendCanonical(buf, v.Field(i), depth+1)
		if err != nil {
			return nil, err
		}
	}
	return append(buf, '}'), nil
}

// typeName names t by package path, so same-named types from different
// packages stay distinct. Unnamed types use their Go syntax.
func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func appendJSONString(buf []byte, s string) []byte {
	data, _ := json.Marshal(s) // strings always encode
	return append(buf, data...)
}

// isComparable reports whether v can be used as a map key without panicking.
// Interface and struct values are checked against their dynamic contents.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}
