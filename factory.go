package jsonstream

import (
	"reflect"
	"sync"
)

// factoryConvert resolves a target type the default mapper registry has no
// entry for. Pointer targets map their element type (nil for null). Other
// targets try, in order: enum-by-name-or-ordinal for types registered with
// RegisterEnum, then a single-argument conversion from the generic value's
// underlying Go value, otherwise ErrMapping.
func factoryConvert(v *Value, target reflect.Type, pos positioner) (reflect.Value, error) {
	if target.Kind() == reflect.Ptr {
		if v.IsNull() {
			return reflect.Zero(target), nil
		}
		inner, err := mapGenericValue(v, target.Elem(), pos)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(target.Elem())
		out.Elem().Set(inner)
		return out, nil
	}

	if names, ok := enumRegistry.Load(target); ok {
		return mapEnum(v, target, names.([]string), pos)
	}

	// (a) single-argument conversion: if the generic value's natural Go
	// representation directly converts to target (defined types over the
	// same underlying kind, e.g. `type Currency string`), use it.
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		rv := reflect.ValueOf(s)
		if rv.Type().ConvertibleTo(target) && target.Kind() == reflect.String {
			return rv.Convert(target), nil
		}
	case KindInt, KindFloat, KindDecimal:
		f, _ := v.AsFloat()
		rv := reflect.ValueOf(f)
		if rv.Type().ConvertibleTo(target) && isNumericKind(target.Kind()) {
			return rv.Convert(target), nil
		}
	case KindBool:
		b, _ := v.AsBool()
		rv := reflect.ValueOf(b)
		if target.Kind() == reflect.Bool {
			return rv.Convert(target), nil
		}
	case KindNull:
		return reflect.Zero(target), nil
	}

	return reflect.Value{}, mappingError(pos, v, target)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var enumRegistry sync.Map // reflect.Type -> []string (ordinal -> name)

// RegisterEnum declares the ordinal-ordered names of an enum-like defined
// type (typically a string or int type with package-level constants), so
// the factory can map a JSON string (by name) or number (by ordinal, 0 or
// 1 indexed tolerant) onto it.
func RegisterEnum(t reflect.Type, names []string) {
	enumRegistry.Store(t, names)
}

func mapEnum(v *Value, target reflect.Type, names []string, pos positioner) (reflect.Value, error) {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		for i, n := range names {
			if n == s {
				return enumValue(target, i), nil
			}
		}
	case KindInt, KindFloat:
		f, _ := v.AsFloat()
		i := int(f)
		if i >= 0 && i < len(names) {
			return enumValue(target, i), nil
		}
		// Tolerate 1-indexed ordinals as well as 0-indexed ones.
		if i-1 >= 0 && i-1 < len(names) {
			return enumValue(target, i-1), nil
		}
	case KindNull:
		return enumValue(target, 0), nil
	}
	return reflect.Value{}, mappingError(pos, v, target)
}

func enumValue(target reflect.Type, ordinal int) reflect.Value {
	if target.Kind() == reflect.String {
		return reflect.ValueOf(enumNameFromRegistry(target, ordinal)).Convert(target)
	}
	return reflect.ValueOf(ordinal).Convert(target)
}

func enumNameFromRegistry(target reflect.Type, ordinal int) string {
	if v, ok := enumRegistry.Load(target); ok {
		names := v.([]string)
		if ordinal >= 0 && ordinal < len(names) {
			return names[ordinal]
		}
	}
	return ""
}
