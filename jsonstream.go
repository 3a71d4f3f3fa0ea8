package jsonstream

import (
	"reflect"

	"github.com/rs/zerolog"
)

// Options holds the resolved configuration for a single read, built from
// the functional Option list passed to OfRoot/Of.
type Options struct {
	maxDepth    int
	decimalMode bool
	log         zerolog.Logger
}

func defaultOptions() Options {
	return Options{maxDepth: 1024, log: zerolog.Nop()}
}

// Option configures a read. See WithMaxDepth, WithDecimalMode, WithLogger.
type Option func(*Options)

// WithMaxDepth overrides the default nesting-depth bound (1024) enforced
// by the tokenizer while parsing non-suspending values.
func WithMaxDepth(n int) Option {
	return func(o *Options) { o.maxDepth = n }
}

// WithDecimalMode switches number parsing to arbitrary-precision
// decimal.Decimal values (github.com/shopspring/decimal) instead of the
// default int64/float64 widening. Off by default.
func WithDecimalMode() Option {
	return func(o *Options) { o.decimalMode = true }
}

// WithLogger attaches a zerolog.Logger for Debug-level frame push/pop and
// suspend/resume events. Logging is a no-op (zerolog.Nop()) by default.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Options) { o.log = log }
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// OfRoot reads a single JSON object from input into a new *T, where T is a
// struct carrying `jsonstream:"..."` tags (and, typically, an embedded
// Base). MappedValue and ProxyObject members are resolved eagerly, in
// declaration order; Stream/Iterator-typed members are bound to a lazy
// continuation the caller drives afterward.
func OfRoot[T any](input Input, opts ...Option) (*T, error) {
	o := buildOptions(opts)
	eng := newEngine(input, o)
	root := newFrame(nil, nil)
	eng.push(root)

	out := new(T)
	if err := decodeInto(eng, root, reflect.ValueOf(out).Elem()); err != nil {
		return nil, err
	}
	return out, nil
}

// Of reads a top-level JSON document as a lazy Stream of T, where T is
// either a schema-bound struct (each element is a nested proxied object)
// or a plain mapped type (each element a simple JSON value). The document
// may be a JSON array (elements in array order) or a JSON object treated
// as a map (elements in object-member order, with no key exposed unless T
// declares a `key` member).
func Of[T any](input Input, opts ...Option) (Stream[T], error) {
	o := buildOptions(opts)
	eng := newEngine(input, o)
	r, err := eng.tok.peekSignificant()
	if err != nil {
		return Stream[T]{}, err
	}
	var isArray bool
	switch r {
	case '[':
		isArray = true
	case '{':
		isArray = false
	default:
		return Stream[T]{}, formatError(eng, "expected '[' or '{' at document root, found %q", r)
	}
	if _, err := eng.tok.in.ReadCodepoint(); err != nil {
		return Stream[T]{}, err
	}

	elemT := reflect.TypeOf((*T)(nil)).Elem()
	m := &member{jsonName: "<root>", maxOccur: unboundedOccur}
	if elemT.Kind() == reflect.Struct {
		m.mode = ModeProxyStream
	} else {
		m.mode = ModeMappedStream
	}

	var s Stream[T]
	s.cont = &continuation{eng: eng, parent: nil, member: m, isArray: isArray}
	if m.mode.IsProxy() {
		s.isProxy = true
		if cs, err := getSchema(elemT); err == nil {
			s.childSchema = cs
		}
	}
	return s, nil
}
