package jsonstream

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapGenericValuePrimitives(t *testing.T) {
	rv, err := mapGenericValue(Int(5), reflect.TypeOf(0), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, 5, rv.Interface())

	rv, err = mapGenericValue(String("hi"), reflect.TypeOf(""), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, "hi", rv.Interface())

	rv, err = mapGenericValue(Bool(true), reflect.TypeOf(false), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, true, rv.Interface())
}

func TestMapGenericValueSliceWrapsSingleton(t *testing.T) {
	rv, err := mapGenericValue(String("solo"), reflect.TypeOf([]string{}), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, []string{"solo"}, rv.Interface())
}

func TestMapGenericValueSliceFromNullIsEmpty(t *testing.T) {
	rv, err := mapGenericValue(Null(), reflect.TypeOf([]string{}), tokenPositioner{})
	require.NoError(t, err)
	out := rv.Interface().([]string)
	require.Len(t, out, 0)
}

func TestMapGenericValueSliceFromArray(t *testing.T) {
	list := List([]*Value{Int(1), Int(2), Int(3)})
	rv, err := mapGenericValue(list, reflect.TypeOf([]int{}), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, rv.Interface())
}

func TestMapGenericValueMapFromObject(t *testing.T) {
	obj := Object([]string{"a", "b"}, []*Value{Int(1), Int(2)})
	rv, err := mapGenericValue(obj, reflect.TypeOf(map[string]int{}), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 1, "b": 2}, rv.Interface())
}

func TestMapGenericValueMapFromScalarUsesValueKey(t *testing.T) {
	rv, err := mapGenericValue(Int(9), reflect.TypeOf(map[string]int{}), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"value": 9}, rv.Interface())
}

func TestMapGenericValueRejectsKindMismatch(t *testing.T) {
	_, err := mapGenericValue(Bool(true), reflect.TypeOf(""), tokenPositioner{})
	require.Error(t, err)
}

type customCurrency string

func TestRegisterMapperOverridesDefault(t *testing.T) {
	ct := reflect.TypeOf(customCurrency(""))
	RegisterMapper(ct, Mapper{
		MapString: func(s string) (reflect.Value, error) {
			return reflect.ValueOf(customCurrency("$" + s)), nil
		},
	})
	rv, err := mapGenericValue(String("5"), ct, tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, customCurrency("$5"), rv.Interface())
}
