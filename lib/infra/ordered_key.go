package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
// NaN is not totally ordered, so trees keyed by floats must not store it.
type Float interface {
	~float32 | ~float64
}

// OrderedKey is the set of totally ordered scalar keys a tree accepts.
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// ParseOrderedKey converts a textual key from an external source (shell,
// config) into K. It is the single place where harness input meets the
// key constraint.
type ParseOrderedKey[K OrderedKey] func(raw string) (K, error)
