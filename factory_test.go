package jsonstream

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactoryConvertPointerWrapsOrNils(t *testing.T) {
	pt := reflect.TypeOf((*int)(nil))
	rv, err := mapGenericValue(Int(4), pt, tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, 4, *rv.Interface().(*int))

	rv, err = mapGenericValue(Null(), pt, tokenPositioner{})
	require.NoError(t, err)
	require.True(t, rv.IsNil())
}

type severity int

const (
	severityLow severity = iota
	severityHigh
)

func TestFactoryConvertEnumByNameAndOrdinal(t *testing.T) {
	RegisterEnum(reflect.TypeOf(severity(0)), []string{"low", "high"})

	rv, err := mapGenericValue(String("high"), reflect.TypeOf(severity(0)), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, severityHigh, rv.Interface())

	rv, err = mapGenericValue(Int(0), reflect.TypeOf(severity(0)), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, severityLow, rv.Interface())
}

func TestFactoryConvertEnumTolerates1IndexedOrdinal(t *testing.T) {
	RegisterEnum(reflect.TypeOf(severity(0)), []string{"low", "high"})
	rv, err := mapGenericValue(Int(2), reflect.TypeOf(severity(0)), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, severityHigh, rv.Interface())
}

type currencyCode string

func TestFactoryConvertDefinedStringType(t *testing.T) {
	rv, err := mapGenericValue(String("USD"), reflect.TypeOf(currencyCode("")), tokenPositioner{})
	require.NoError(t, err)
	require.Equal(t, currencyCode("USD"), rv.Interface())
}

func TestFactoryConvertUnmappableTypeIsMappingError(t *testing.T) {
	type opaque struct{ X int }
	_, err := mapGenericValue(String("nope"), reflect.TypeOf(opaque{}), tokenPositioner{})
	require.Error(t, err)
}
