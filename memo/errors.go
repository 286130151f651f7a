package memo

import "errors"

// Sentinel errors for key derivation.
var (
	// ErrKey wraps any failure returned by a KeyFunc.
	ErrKey = errors.New("memo: key derivation failed")

	// ErrArity indicates FirstArg was used with other than one argument.
	ErrArity = errors.New("memo: default key requires exactly one argument")

	// ErrUncomparableArg indicates an argument that is neither comparable nor a fmt.Stringer.
	ErrUncomparableArg = errors.New("memo: argument is not comparable")

	// ErrUnencodableArg indicates an argument Canonical cannot encode without
	// losing its identity.
	ErrUnencodableArg = errors.New("memo: argument cannot be encoded canonically")

	// ErrUncomparableKey indicates a KeyFunc produced a key that cannot index a map.
	ErrUncomparableKey = errors.New("memo: key is not comparable")

	// ErrNotString indicates Digest was given a key function that does not produce strings.
	ErrNotString = errors.New("memo: key is not a string")
)
