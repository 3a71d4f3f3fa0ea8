package jsonstream

import "reflect"

// Base is embedded (anonymously) in every schema-bound struct to give it
// access to its own position in the document, without requiring every
// schema struct to hand-wire that access itself. It carries no exported
// fields: callers only ever see it through Position.
type Base struct {
	eng *engine
	f   *frame
}

// Position renders this object's current human-readable position trail.
// Useful inside a Consumer callback when reporting a domain-level error
// back to the caller.
func (b Base) Position() string {
	if b.eng == nil {
		return "<unbound>"
	}
	return b.eng.position()
}

var baseType = reflect.TypeOf(Base{})

// decodeInto populates rv (addressable, of a struct type carrying a schema)
// from the members available at frame f. Each MappedValue/ProxyObject
// member is resolved as soon as it is encountered, and each streaming
// member's Stream/Iterator field is bound to a continuation without
// reading ahead into it.
func decodeInto(eng *engine, f *frame, rv reflect.Value) error {
	sch, err := getSchema(rv.Type())
	if err != nil {
		return err
	}
	f.schema = sch

	if sch.keyMember != nil {
		if err := setKeyField(eng, f, rv, sch.keyMember); err != nil {
			return err
		}
	}

	for i := 0; i < rv.Type().NumField(); i++ {
		sf := rv.Type().Field(i)
		if sf.Anonymous && sf.Type == baseType {
			rv.Field(i).Set(reflect.ValueOf(Base{eng: eng, f: f}))
		}
	}

	for _, m := range sch.members {
		if err := decodeMember(eng, f, rv, m); err != nil {
			return err
		}
	}
	if sch.rawMember != nil {
		raw, err := eng.resolveRaw(f)
		if err != nil {
			return err
		}
		rv.Field(sch.rawMember.fieldIndex).Set(reflect.ValueOf(raw))
	}
	return nil
}

func setKeyField(eng *engine, f *frame, rv reflect.Value, m *member) error {
	key := f.keyValue
	if key == nil {
		key = Null()
	}
	fv, err := mapGenericValue(key, m.goType, eng)
	if err != nil {
		return err
	}
	rv.Field(m.fieldIndex).Set(fv)
	return nil
}

func decodeMember(eng *engine, f *frame, rv reflect.Value, m *member) error {
	fv := rv.Field(m.fieldIndex)

	switch m.mode {
	case ModeMappedValue:
		v, present, err := eng.resolveValue(f, m)
		if err != nil {
			return err
		}
		return setMappedValue(eng, fv, m, v, present)

	case ModeProxyObject:
		cont, childFrame, err := eng.enterSuspending(f, m)
		if err != nil {
			return err
		}
		if cont != nil && cont.exhausted {
			// Member absent or explicit null: leave the field at its zero
			// value, matching a MappedValue member's null-policy default
			// when no default_value/retain_nulls applies.
			return nil
		}
		// A ProxyObject field is a single nested object, not a sequence
		// element a caller advances past explicitly, so it is decoded and
		// drained fully here rather than left pending (contrast with
		// Stream[T]/Iterator[T] elements in sequence.go, which defer
		// draining until the caller asks for the next one).
		eng.push(childFrame)
		out := reflect.New(m.goType).Elem()
		if err := decodeInto(eng, childFrame, out); err != nil {
			eng.pop()
			return err
		}
		if err := eng.drainFrame(childFrame); err != nil {
			eng.pop()
			return err
		}
		eng.pop()
		f.isContinued = true
		fv.Set(out)
		return nil

	default: // the six streaming/proxy/consumer modes
		if b, ok := fv.Addr().Interface().(binder); ok {
			b.Bind(eng, f, m)
			return nil
		}
		return schemaError(eng, "member %q must be declared as Stream[T] or Iterator[T]", m.jsonName)
	}
}

// setMappedValue applies the null-policy precedence (retain_nulls >
// default_value > the target type's own null mapping) to an absent or null
// member and then performs the generic-to-target conversion.
func setMappedValue(eng *engine, fv reflect.Value, m *member, v *Value, present bool) error {
	if !present {
		if m.minOccur > 0 {
			return constraintError(eng, "required member %q is absent", m.jsonName)
		}
		v = Null()
	}
	if v.IsNull() {
		if m.retainNulls {
			return nil // leave zero value (nil for pointer, slice and map types)
		}
		if m.defaultValue != nil {
			conv, err := mapGenericValue(m.defaultValue, fv.Type(), eng)
			if err != nil {
				return err
			}
			fv.Set(conv)
			return nil
		}
	}
	conv, err := mapGenericValue(v, fv.Type(), eng)
	if err != nil {
		return err
	}
	fv.Set(conv)
	return nil
}

// ConsumeMapped drives a MappedConsumer-mode stream to completion, calling
// fn with each element in order. A thin convenience wrapper over Stream[T],
// since Go structs have no method-shaped fields to declare a callback
// member directly.
func ConsumeMapped[V any](s *Stream[V], fn func(V) error) error {
	for {
		v, ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

// ConsumeProxy drives a ProxyConsumer-mode stream to completion. See
// ConsumeMapped.
func ConsumeProxy[P any](s *Stream[P], fn func(P) error) error {
	return ConsumeMapped(s, fn)
}
