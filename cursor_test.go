package jsonstream

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type cursorSimpleDoc struct {
	Base
	Name    string  `jsonstream:"name"`
	Retries int     `jsonstream:"retries,default=7"`
	Kept    *string `jsonstream:"kept,retainNulls"`
}

func decodeSimpleDoc(t *testing.T, body string) *cursorSimpleDoc {
	t.Helper()
	eng := newEngine(NewStringInput(body), defaultOptions())
	f := newFrame(nil, nil)
	eng.push(f)
	out := new(cursorSimpleDoc)
	require.NoError(t, decodeInto(eng, f, reflect.ValueOf(out).Elem()))
	return out
}

func TestDecodeIntoAppliesDefaultForAbsentMember(t *testing.T) {
	doc := decodeSimpleDoc(t, `{"name":"x"}`)
	require.Equal(t, "x", doc.Name)
	require.Equal(t, 7, doc.Retries)
}

func TestDecodeIntoRetainsNullAndPrefersPresentValueOverDefault(t *testing.T) {
	doc := decodeSimpleDoc(t, `{"name":"x","retries":2,"kept":null}`)
	require.Nil(t, doc.Kept)
	require.Equal(t, 2, doc.Retries)
}

type cursorNested struct {
	Base
	X int `jsonstream:"x"`
}

type cursorMixedDoc struct {
	Base
	Name    string       `jsonstream:"name"`
	Nested  cursorNested `jsonstream:"nested"`
	Numbers Stream[int]  `jsonstream:"numbers,mappedStream"`
}

func decodeMixedDoc(t *testing.T, body string) (*engine, *frame, *cursorMixedDoc) {
	t.Helper()
	eng := newEngine(NewStringInput(body), defaultOptions())
	f := newFrame(nil, nil)
	eng.push(f)
	out := new(cursorMixedDoc)
	rv := reflect.ValueOf(out).Elem()
	require.NoError(t, decodeInto(eng, f, rv))
	return eng, f, out
}

func TestDecodeIntoResolvesProxyObjectEagerly(t *testing.T) {
	_, _, doc := decodeMixedDoc(t, `{"name":"x","nested":{"x":9},"numbers":[1,2]}`)
	require.Equal(t, "x", doc.Name)
	require.Equal(t, 9, doc.Nested.X)
}

func TestDecodeMemberLeavesStreamUnresolvedUntilNext(t *testing.T) {
	_, _, doc := decodeMixedDoc(t, `{"name":"x","nested":{"x":1},"numbers":[3,4]}`)

	v, ok, err := doc.Numbers.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok, err = doc.Numbers.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, v)

	_, ok, err = doc.Numbers.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetMappedValueRequiredAbsentIsConstraintError(t *testing.T) {
	eng := newEngine(NewStringInput(`{}`), defaultOptions())
	fv := reflect.New(reflect.TypeOf(0)).Elem()
	m := &member{jsonName: "count", minOccur: 1}
	err := setMappedValue(eng, fv, m, nil, false)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstraint))
}

func TestConsumeMappedDrivesStreamToCompletion(t *testing.T) {
	eng, f, sch := newTestEngine(t, `{"a":1,"b":[1,2,3]}`)
	var s Stream[int]
	s.Bind(eng, f, sch.byName["b"])

	var sum int
	err := ConsumeMapped(&s, func(v int) error {
		sum += v
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 6, sum)
}
