package jsonstream

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type engineTestDoc struct {
	Base
	A int                    `jsonstream:"a"`
	B Stream[int]            `jsonstream:"b,mappedStream"`
}

func newTestEngine(t *testing.T, doc string) (*engine, *frame, *schema) {
	t.Helper()
	sch, err := getSchema(reflect.TypeOf(engineTestDoc{}))
	require.NoError(t, err)
	eng := newEngine(NewStringInput(doc), defaultOptions())
	f := newFrame(sch, nil)
	eng.push(f)
	return eng, f, sch
}

func TestReadMembersToContinuationOpensAndStopsAtSuspending(t *testing.T) {
	eng, f, _ := newTestEngine(t, `{"a":1,"b":[1,2]}`)
	err := eng.readMembersToContinuation(f)
	require.NoError(t, err)
	require.Equal(t, "b", f.currentContinuation)
	v, ok := f.values["a"]
	require.True(t, ok)
	i, _ := v.AsInt()
	require.Equal(t, int64(1), i)
}

func TestReadMembersToContinuationEmptyObjectClosesImmediately(t *testing.T) {
	eng, f, _ := newTestEngine(t, `{}`)
	err := eng.readMembersToContinuation(f)
	require.NoError(t, err)
	require.True(t, f.isClosed)
}

func TestResolveValueSkipsPastUnrequestedSuspendingMember(t *testing.T) {
	eng, f, sch := newTestEngine(t, `{"b":[1,2,3],"a":5}`)
	v, ok, err := eng.resolveValue(f, sch.byName["a"])
	require.NoError(t, err)
	require.True(t, ok)
	i, _ := v.AsInt()
	require.Equal(t, int64(5), i)
	// b was skipped unread to get to a; asking for it now is a schema error.
	_, _, err = eng.enterSuspending(f, sch.byName["b"])
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSchema))
}

func TestEnterSuspendingRejectsReentrantLiveContinuation(t *testing.T) {
	eng, f, sch := newTestEngine(t, `{"a":1,"b":[1,2]}`)
	_, _, err := eng.enterSuspending(f, sch.byName["b"])
	require.NoError(t, err)
	_, _, err = eng.enterSuspending(f, sch.byName["b"])
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrProxyMisuse))
}

func TestCheckOwnerRejectsNonTopFrame(t *testing.T) {
	eng, f, _ := newTestEngine(t, `{"a":1,"b":[]}`)
	other := newFrame(nil, nil)
	err := eng.checkOwner(other)
	require.Error(t, err)
	require.NotSame(t, f, other)
}

func TestDrainFrameSkipsRemainingMembers(t *testing.T) {
	eng, f, _ := newTestEngine(t, `{"a":1,"b":[1,2,3]}`)
	err := eng.drainFrame(f)
	require.NoError(t, err)
	require.True(t, f.isClosed)
}

type constrainedTestDoc struct {
	Base
	Name string `jsonstream:"name,maxLength=3"`
	Tree *Value `jsonstream:"tree,maxDepth=2,raw"`
}

func TestCheckValueConstraintsRejectsOverLongString(t *testing.T) {
	eng := newEngine(NewStringInput(""), defaultOptions())
	m := &member{jsonName: "name", maxLength: 3}
	err := eng.checkValueConstraints(m, String("abcd"))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstraint))
}

func TestCheckValueConstraintsAcceptsStringWithinLength(t *testing.T) {
	eng := newEngine(NewStringInput(""), defaultOptions())
	m := &member{jsonName: "name", maxLength: 3}
	require.NoError(t, eng.checkValueConstraints(m, String("abc")))
}

func TestCheckValueConstraintsRejectsExcessDepth(t *testing.T) {
	eng := newEngine(NewStringInput(""), defaultOptions())
	m := &member{jsonName: "tree", maxDepth: 1}
	nested := List([]*Value{List([]*Value{Int(1)})})
	err := eng.checkValueConstraints(m, nested)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstraint))
}

func TestCheckValueConstraintsRejectsExcessSize(t *testing.T) {
	eng := newEngine(NewStringInput(""), defaultOptions())
	m := &member{jsonName: "items", maxSize: 2}
	err := eng.checkValueConstraints(m, List([]*Value{Int(1), Int(2), Int(3)}))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstraint))
}

func TestCheckValueConstraintsRejectsDisallowedType(t *testing.T) {
	eng := newEngine(NewStringInput(""), defaultOptions())
	m := &member{jsonName: "value", acceptedTypes: []string{"string", "number"}}
	require.NoError(t, eng.checkValueConstraints(m, String("ok")))
	require.NoError(t, eng.checkValueConstraints(m, Int(5)))
	err := eng.checkValueConstraints(m, Bool(true))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstraint))
}

func TestReadMembersToContinuationEnforcesMemberConstraints(t *testing.T) {
	sch, err := getSchema(reflect.TypeOf(constrainedTestDoc{}))
	require.NoError(t, err)
	eng := newEngine(NewStringInput(`{"name":"abcdef"}`), defaultOptions())
	f := newFrame(sch, nil)
	eng.push(f)
	err = eng.readMembersToContinuation(f)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConstraint))
}
