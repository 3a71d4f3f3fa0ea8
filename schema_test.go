package jsonstream

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTagDefaultsAndOverrides(t *testing.T) {
	tg := parseTag("name,required,max=3,default=5")
	require.Equal(t, "name", tg.name)
	require.True(t, tg.required)
	require.Equal(t, 1, tg.minOccur)
	require.Equal(t, 3, tg.maxOccur)
	require.Equal(t, "5", tg.defaultValue)
}

func TestParseTagUnboundedMaxByDefault(t *testing.T) {
	tg := parseTag("name")
	require.Equal(t, unboundedOccur, tg.maxOccur)
}

func TestParseTagDefaultValueSurvivesBracketedLiteral(t *testing.T) {
	tg := parseTag("numbers,mappedStream,default=[1,2,3]")
	require.Equal(t, "numbers", tg.name)
	require.Equal(t, "mappedStream", tg.modeOverride)
	require.Equal(t, "[1,2,3]", tg.defaultValue)
}

func TestSplitTopLevelRespectsBracketNesting(t *testing.T) {
	require.Equal(t, []string{"a", "b=[1,2]", "c"}, splitTopLevel("a,b=[1,2],c"))
	require.Equal(t, []string{`b={"x":1,"y":2}`}, splitTopLevel(`b={"x":1,"y":2}`))
}

func TestParseTagAcceptSplitsOnPipe(t *testing.T) {
	tg := parseTag("name,accept=string|number")
	require.Equal(t, []string{"string", "number"}, tg.acceptedTypes)
}

func TestJsonNameForStripsGetAndIsPrefixes(t *testing.T) {
	require.Equal(t, "name", jsonNameFor("GetName"))
	require.Equal(t, "active", jsonNameFor("IsActive"))
	require.Equal(t, "handle", jsonNameFor("Handle"))
}

type schemaTestMember struct {
	Base
	Handle string `jsonstream:"handle,key"`
	Role   string `jsonstream:"role"`
}

type schemaTestDoc struct {
	Base
	Name    string                       `jsonstream:"name"`
	Retries int                          `jsonstream:"retries,default=3"`
	Members Stream[schemaTestMember]     `jsonstream:"members,proxyStream"`
	Extra   map[string]*Value            `jsonstream:"_,raw"`
}

func TestBuildSchemaExcludesKeyMemberFromByName(t *testing.T) {
	s, err := buildSchema(reflect.TypeOf(schemaTestMember{}))
	require.NoError(t, err)
	require.NotNil(t, s.keyMember)
	require.Equal(t, "handle", s.keyMember.jsonName)
	_, ok := s.byName["handle"]
	require.False(t, ok, "key member must not be resolvable as a regular JSON member")
	_, ok = s.byName["role"]
	require.True(t, ok)
}

func TestBuildSchemaSeparatesRawMember(t *testing.T) {
	s, err := buildSchema(reflect.TypeOf(schemaTestDoc{}))
	require.NoError(t, err)
	require.NotNil(t, s.rawMember)
	require.Equal(t, ModeRawValues, s.rawMember.mode)
	for _, m := range s.members {
		require.NotEqual(t, ModeRawValues, m.mode)
	}
}

func TestBuildSchemaDerivesProxyStreamMode(t *testing.T) {
	s, err := buildSchema(reflect.TypeOf(schemaTestDoc{}))
	require.NoError(t, err)
	m := s.byName["members"]
	require.NotNil(t, m)
	require.Equal(t, ModeProxyStream, m.mode)
	require.Equal(t, reflect.TypeOf(schemaTestMember{}), m.elemType)
}

type schemaTestBadOccur struct {
	Base
	Count int `jsonstream:"count,min=5,max=2"`
}

func TestBuildSchemaRejectsMinExceedingMax(t *testing.T) {
	_, err := buildSchema(reflect.TypeOf(schemaTestBadOccur{}))
	require.ErrorIs(t, err, ErrSchema)
}

type schemaTestUntagged struct {
	Base
	Handle string
}

func TestRegisterAnnotationsSuppliesTagForUntaggedField(t *testing.T) {
	RegisterAnnotations(reflect.TypeOf(schemaTestUntagged{}), map[string]string{
		"Handle": "handle,key",
	})
	s, err := buildSchema(reflect.TypeOf(schemaTestUntagged{}))
	require.NoError(t, err)
	require.NotNil(t, s.keyMember)
	require.Equal(t, "handle", s.keyMember.jsonName)
}

func TestGetSchemaCachesByType(t *testing.T) {
	s1, err := getSchema(reflect.TypeOf(schemaTestDoc{}))
	require.NoError(t, err)
	s2, err := getSchema(reflect.TypeOf(schemaTestDoc{}))
	require.NoError(t, err)
	require.Same(t, s1, s2)
}

func TestProcessingModePredicates(t *testing.T) {
	require.False(t, ModeMappedValue.IsSuspending())
	require.False(t, ModeRawValues.IsSuspending())
	require.True(t, ModeProxyObject.IsSuspending())
	require.False(t, ModeProxyObject.IsStreaming())
	require.True(t, ModeMappedStream.IsStreaming())
	require.True(t, ModeMappedConsumer.IsConsumer())
	require.True(t, ModeProxyStream.IsProxy())
	require.False(t, ModeMappedStream.IsProxy())
}
