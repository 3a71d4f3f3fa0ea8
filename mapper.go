package jsonstream

import (
	"reflect"
	"sync"
)

// Mapper converts a generic Value into a target Go type for one member.
// The default registry below covers the built-in primitive/collection
// cases; RegisterMapper lets a caller extend it for a concrete Go type the
// default registry or factory can't handle on its own.
type Mapper struct {
	// MapNull supplies the value for JSON null or an absent member, once
	// the null-policy precedence (retain_nulls, default_value) has been
	// applied and found not to apply.
	MapNull func() reflect.Value
	// MapString converts a JSON string.
	MapString func(s string) (reflect.Value, error)
	// MapNumber converts a JSON number (integer, float, or decimal).
	MapNumber func(v *Value) (reflect.Value, error)
	// MapBoolean converts a JSON boolean.
	MapBoolean func(b bool) (reflect.Value, error)
}

var mapperRegistry sync.Map // reflect.Type -> Mapper

// RegisterMapper installs a Mapper for t, overriding the default registry
// and factory fallback for that concrete Go type. Safe for concurrent use:
// the registry is a compute-if-absent cache over sync.Map.
func RegisterMapper(t reflect.Type, m Mapper) {
	mapperRegistry.Store(t, m)
}

func getMapper(t reflect.Type) (Mapper, bool) {
	if v, ok := mapperRegistry.Load(t); ok {
		return v.(Mapper), true
	}
	if _, ok := enumRegistry.Load(t); ok {
		// Registered enums are mapped by the factory (by name or ordinal),
		// not by the default mapper for their underlying kind.
		return Mapper{}, false
	}
	if m, ok := defaultMapperFor(t); ok {
		actual, _ := mapperRegistry.LoadOrStore(t, m)
		return actual.(Mapper), true
	}
	return Mapper{}, false
}

// defaultMapperFor builds the built-in mapper for primitive/collection Go
// kinds.
func defaultMapperFor(t reflect.Type) (Mapper, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return Mapper{
			MapNull:    func() reflect.Value { return reflect.Zero(t) },
			MapBoolean: func(b bool) (reflect.Value, error) { return reflect.ValueOf(b), nil },
			MapString: func(s string) (reflect.Value, error) {
				return reflect.ValueOf(len(s) > 0 && (s[0] == 't' || s[0] == 'T')), nil
			},
			MapNumber: func(v *Value) (reflect.Value, error) {
				f, _ := v.AsFloat()
				return reflect.ValueOf(f != 0), nil
			},
		}, true
	case reflect.String:
		return Mapper{
			MapNull:   func() reflect.Value { return reflect.Zero(t) },
			MapString: func(s string) (reflect.Value, error) { return reflect.ValueOf(s).Convert(t), nil },
		}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Mapper{
			MapNull: func() reflect.Value { return reflect.Zero(t) },
			MapNumber: func(v *Value) (reflect.Value, error) {
				f, _ := v.AsFloat()
				return reflect.ValueOf(int64(f)).Convert(t), nil
			},
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Mapper{
			MapNull: func() reflect.Value { return reflect.Zero(t) },
			MapNumber: func(v *Value) (reflect.Value, error) {
				f, _ := v.AsFloat()
				return reflect.ValueOf(uint64(f)).Convert(t), nil
			},
		}, true
	case reflect.Float32, reflect.Float64:
		return Mapper{
			MapNull: func() reflect.Value { return reflect.Zero(t) },
			MapNumber: func(v *Value) (reflect.Value, error) {
				f, _ := v.AsFloat()
				return reflect.ValueOf(f).Convert(t), nil
			},
		}, true
	case reflect.Slice:
		return sliceMapper(t), true
	case reflect.Map:
		return mapMapper(t), true
	}
	return Mapper{}, false
}

// sliceMapper maps a JSON array into a slice of elem, or wraps a single
// non-array value as a one-element slice, or produces an empty slice for
// null.
func sliceMapper(t reflect.Type) Mapper {
	elem := t.Elem()
	return Mapper{
		MapNull: func() reflect.Value { return reflect.MakeSlice(t, 0, 0) },
		MapString: func(s string) (reflect.Value, error) {
			return singletonSlice(t, elem, String(s))
		},
		MapNumber: func(v *Value) (reflect.Value, error) {
			return singletonSlice(t, elem, v)
		},
		MapBoolean: func(b bool) (reflect.Value, error) {
			return singletonSlice(t, elem, Bool(b))
		},
	}
}

func singletonSlice(t, elem reflect.Type, v *Value) (reflect.Value, error) {
	ev, err := mapGenericValue(v, elem, tokenPositioner{})
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeSlice(t, 1, 1)
	out.Index(0).Set(ev)
	return out, nil
}

// mapMapper maps a JSON object into map[string]V, or wraps a single value
// under the reserved key "value" (empty map for null).
func mapMapper(t reflect.Type) Mapper {
	elem := t.Elem()
	single := func(v *Value) (reflect.Value, error) {
		ev, err := mapGenericValue(v, elem, tokenPositioner{})
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeMapWithSize(t, 1)
		out.SetMapIndex(reflect.ValueOf("value"), ev)
		return out, nil
	}
	return Mapper{
		MapNull:    func() reflect.Value { return reflect.MakeMap(t) },
		MapString:  func(s string) (reflect.Value, error) { return single(String(s)) },
		MapNumber:  func(v *Value) (reflect.Value, error) { return single(v) },
		MapBoolean: func(b bool) (reflect.Value, error) { return single(Bool(b)) },
	}
}

// mapGenericValue performs the "generic -> target" half of the two-step
// conversion, assuming the null-policy precedence has already been
// resolved by the caller (decodeMember in cursor.go).
func mapGenericValue(v *Value, target reflect.Type, pos positioner) (reflect.Value, error) {
	if target.Kind() == reflect.Map && v.Kind() == KindMap {
		keys, vals, _ := v.AsObject()
		out := reflect.MakeMapWithSize(target, len(keys))
		for i, k := range keys {
			ev, err := mapGenericValue(vals[i], target.Elem(), pos)
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k), ev)
		}
		return out, nil
	}
	if target.Kind() == reflect.Slice && v.Kind() == KindList {
		elems, _ := v.AsList()
		out := reflect.MakeSlice(target, len(elems), len(elems))
		for i, e := range elems {
			ev, err := mapGenericValue(e, target.Elem(), pos)
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	}

	m, ok := getMapper(target)
	if !ok {
		fv, err := factoryConvert(v, target, pos)
		if err != nil {
			return reflect.Value{}, err
		}
		return fv, nil
	}

	switch v.Kind() {
	case KindNull:
		if m.MapNull == nil {
			return reflect.Zero(target), nil
		}
		return m.MapNull(), nil
	case KindString:
		s, _ := v.AsString()
		if m.MapString == nil {
			return reflect.Value{}, mappingError(pos, v, target)
		}
		return m.MapString(s)
	case KindBool:
		b, _ := v.AsBool()
		if m.MapBoolean == nil {
			return reflect.Value{}, mappingError(pos, v, target)
		}
		return m.MapBoolean(b)
	case KindInt, KindFloat, KindDecimal:
		if m.MapNumber == nil {
			return reflect.Value{}, mappingError(pos, v, target)
		}
		return m.MapNumber(v)
	}
	return reflect.Value{}, mappingError(pos, v, target)
}
