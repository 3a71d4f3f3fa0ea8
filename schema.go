package jsonstream

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ProcessingMode is the tagged variant driving all of the Engine's
// dispatch: one of the nine shapes derived from a member's declared
// signature. All branching in the Engine is driven by this variant rather
// than by reflective dispatch on a case-by-case basis.
type ProcessingMode int

// The nine processing modes.
const (
	ModeMappedValue ProcessingMode = iota
	ModeProxyObject
	ModeMappedStream
	ModeMappedIterator
	ModeMappedConsumer
	ModeProxyStream
	ModeProxyIterator
	ModeProxyConsumer
	ModeRawValues
)

func (m ProcessingMode) String() string {
	switch m {
	case ModeMappedValue:
		return "MappedValue"
	case ModeProxyObject:
		return "ProxyObject"
	case ModeMappedStream:
		return "MappedStream"
	case ModeMappedIterator:
		return "MappedIterator"
	case ModeMappedConsumer:
		return "MappedConsumer"
	case ModeProxyStream:
		return "ProxyStream"
	case ModeProxyIterator:
		return "ProxyIterator"
	case ModeProxyConsumer:
		return "ProxyConsumer"
	case ModeRawValues:
		return "RawValues"
	}
	return "<unknown mode>"
}

// IsSuspending reports whether this mode drives the Engine to pause
// parsing until the consumer iterates.
func (m ProcessingMode) IsSuspending() bool {
	return m != ModeMappedValue && m != ModeRawValues
}

// IsStreaming reports whether this mode exposes a lazy sequence (as
// opposed to a single nested object).
func (m ProcessingMode) IsStreaming() bool {
	return m.IsSuspending() && m != ModeProxyObject
}

// IsConsumer reports whether this mode is a push-callback form.
func (m ProcessingMode) IsConsumer() bool {
	return m == ModeMappedConsumer || m == ModeProxyConsumer
}

// IsProxy reports whether this mode's elements are nested proxied
// objects rather than simple mapped values.
func (m ProcessingMode) IsProxy() bool {
	switch m {
	case ModeProxyObject, ModeProxyStream, ModeProxyIterator, ModeProxyConsumer:
		return true
	}
	return false
}

// member is the unit of schema binding, derived once per target type and
// cached process-wide.
type member struct {
	index         int
	jsonName      string
	isKey         bool
	mode          ProcessingMode
	fieldIndex    int // index into the struct's fields
	goType        reflect.Type
	elemType      reflect.Type // element/target type for streaming and proxy modes
	retainNulls   bool
	defaultValue  *Value
	minOccur      int
	maxOccur      int
	maxDepth      int
	maxSize       int
	maxLength     int
	acceptedTypes []string // JSON type names ("string","number","boolean","null","array","object"); empty means unrestricted
}

// schema is the ordered, indexed, immutable table of members for one
// target type, built once via reflection and cached in schemaCache.
type schema struct {
	typ       reflect.Type
	members   []*member // ordered by index (declaration order)
	byName    map[string]*member
	keyMember *member
	rawMember *member
}

var schemaCache sync.Map // reflect.Type -> *schema

var annotationRegistry sync.Map // reflect.Type -> map[string]string (Go field name -> jsonstream tag text)

// RegisterAnnotations declares `jsonstream:"..."` tag text for t's fields out
// of band, for target types whose tags can't be edited in place (a type
// defined in another package, or one generated from an external source).
// tags maps the Go field name to the tag text it would otherwise carry; a
// field named here is consulted ahead of its own struct tag, which is used
// unchanged for every field tags omits. Must be called before the first
// getSchema(t) for t, since the built schema is cached permanently.
func RegisterAnnotations(t reflect.Type, tags map[string]string) {
	annotationRegistry.Store(t, tags)
}

func annotationFor(t reflect.Type, fieldName string) (string, bool) {
	v, ok := annotationRegistry.Load(t)
	if !ok {
		return "", false
	}
	s, ok := v.(map[string]string)[fieldName]
	return s, ok
}

// getSchema returns the cached schema for t (a struct type, possibly
// embedding Base), building and caching it on first use.
func getSchema(t reflect.Type) (*schema, error) {
	if v, ok := schemaCache.Load(t); ok {
		return v.(*schema), nil
	}
	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*schema), nil
}

// tag holds the parsed form of a `jsonstream:"..."` struct tag.
type tag struct {
	name          string
	isKey         bool
	required      bool
	retainNulls   bool
	raw           bool
	defaultValue  string
	minOccur      int
	maxOccur      int
	maxDepth      int
	maxSize       int
	maxLength     int
	acceptedTypes []string
	modeOverride  string
}

const unboundedOccur = 1<<31 - 1

// splitTopLevel splits raw on commas, except commas nested inside a `[...]`
// or `{...}` span (so a `default=[1,2,3]` segment survives intact rather
// than being torn apart at its inner commas).
func splitTopLevel(raw string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, raw[start:])
	return parts
}

func parseTag(raw string) tag {
	t := tag{maxOccur: unboundedOccur}
	parts := splitTopLevel(raw)
	if len(parts) == 0 {
		return t
	}
	if parts[0] != "" && !strings.Contains(parts[0], "=") {
		t.name = parts[0]
		parts = parts[1:]
	}
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		key := strings.TrimSpace(kv[0])
		val := ""
		if len(kv) == 2 {
			val = kv[1]
		}
		switch key {
		case "key":
			t.isKey = true
		case "required":
			t.required = true
			if t.minOccur == 0 {
				t.minOccur = 1
			}
		case "retainNulls":
			t.retainNulls = true
		case "raw":
			t.raw = true
		case "default":
			t.defaultValue = val
		case "min":
			fmt.Sscanf(val, "%d", &t.minOccur)
		case "max":
			fmt.Sscanf(val, "%d", &t.maxOccur)
		case "maxDepth":
			fmt.Sscanf(val, "%d", &t.maxDepth)
		case "maxSize":
			fmt.Sscanf(val, "%d", &t.maxSize)
		case "maxLength":
			fmt.Sscanf(val, "%d", &t.maxLength)
		case "accept":
			for _, a := range strings.Split(val, "|") {
				t.acceptedTypes = append(t.acceptedTypes, strings.TrimSpace(a))
			}
		case "mappedValue", "proxyObject", "mappedStream", "mappedIterator",
			"mappedConsumer", "proxyStream", "proxyIterator", "proxyConsumer":
			t.modeOverride = key
		}
	}
	return t
}

// jsonNameFor derives the JSON key from a Go field name absent an explicit
// override: strip a "Get"/"Is" prefix and lowercase the first letter.
func jsonNameFor(fieldName string) string {
	name := fieldName
	switch {
	case strings.HasPrefix(name, "Get") && len(name) > 3:
		name = name[3:]
	case strings.HasPrefix(name, "Is") && len(name) > 2:
		name = name[2:]
	}
	if name == "" {
		return fieldName
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// typeDescriptor is implemented by Stream[T]/Iterator[T] to recover their
// element type T without needing generics-aware reflection: T is resolved
// by the already-monomorphized method body, not by runtime instantiation.
type typeDescriptor interface {
	elemType() reflect.Type
}

func buildSchema(t reflect.Type) (*schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("jsonstream: schema target %s must be a struct", t)
	}
	s := &schema{typ: t, byName: map[string]*member{}}
	index := 1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == reflect.TypeOf(Base{}) {
			continue
		}
		if !f.IsExported() {
			continue
		}
		rawTag, ok := annotationFor(t, f.Name)
		if !ok {
			rawTag, ok = f.Tag.Lookup("jsonstream")
			if !ok {
				continue
			}
		}
		pt := parseTag(rawTag)
		name := pt.name
		if name == "" {
			name = jsonNameFor(f.Name)
		}

		m := &member{
			jsonName:      name,
			isKey:         pt.isKey,
			fieldIndex:    i,
			goType:        f.Type,
			retainNulls:   pt.retainNulls,
			minOccur:      pt.minOccur,
			maxOccur:      pt.maxOccur,
			maxDepth:      pt.maxDepth,
			maxSize:       pt.maxSize,
			maxLength:     pt.maxLength,
			acceptedTypes: pt.acceptedTypes,
		}
		if m.minOccur > m.maxOccur {
			return nil, schemaError(tokenPositioner{}, "%s.%s: min_occur (%d) exceeds max_occur (%d)", t, f.Name, m.minOccur, m.maxOccur)
		}
		if pt.defaultValue != "" {
			v, _, err := parseJSONLiteral(pt.defaultValue)
			if err != nil {
				return nil, fmt.Errorf("jsonstream: invalid default_value for %s.%s: %w", t, f.Name, err)
			}
			m.defaultValue = v
		}

		mode, elemType, err := resolveMode(f.Type, pt)
		if err != nil {
			return nil, fmt.Errorf("jsonstream: %s.%s: %w", t, f.Name, err)
		}
		m.mode = mode
		m.elemType = elemType

		if pt.raw || mode == ModeRawValues {
			if s.rawMember != nil {
				return nil, fmt.Errorf("jsonstream: %s has more than one raw-values member", t)
			}
			m.index = 0
			m.mode = ModeRawValues
			s.rawMember = m
			continue
		}
		if m.isKey {
			// The key member is sourced from the enclosing object-as-map
			// entry's own key, never from a JSON member of this object, so
			// it is deliberately absent from byName.
			if s.keyMember != nil {
				return nil, fmt.Errorf("jsonstream: %s has more than one key member", t)
			}
			m.index = 0
			s.keyMember = m
			continue
		}
		m.index = index
		index++
		s.members = append(s.members, m)
		s.byName[m.jsonName] = m
	}
	return s, nil
}

// resolveMode derives a member's ProcessingMode and element type from its
// Go field type and parsed tag.
func resolveMode(ft reflect.Type, pt tag) (ProcessingMode, reflect.Type, error) {
	if pt.modeOverride != "" {
		switch pt.modeOverride {
		case "mappedStream":
			return ModeMappedStream, elemOf(ft), nil
		case "mappedIterator":
			return ModeMappedIterator, elemOf(ft), nil
		case "proxyStream":
			return ModeProxyStream, elemOf(ft), nil
		case "proxyIterator":
			return ModeProxyIterator, elemOf(ft), nil
		case "mappedConsumer":
			return ModeMappedConsumer, elemOf(ft), nil
		case "proxyConsumer":
			return ModeProxyConsumer, elemOf(ft), nil
		case "proxyObject":
			return ModeProxyObject, ft, nil
		case "mappedValue":
			return ModeMappedValue, ft, nil
		}
	}
	if ft == reflect.TypeOf(map[string]*Value{}) {
		return ModeRawValues, nil, nil
	}
	if ft.Kind() == reflect.Struct {
		return ModeProxyObject, ft, nil
	}
	return ModeMappedValue, ft, nil
}

// elemOf extracts T from a Stream[T]/Iterator[T]-shaped field type via the
// typeDescriptor marker method, described above.
func elemOf(ft reflect.Type) reflect.Type {
	zero := reflect.New(ft).Elem().Interface()
	if td, ok := zero.(typeDescriptor); ok {
		return td.elemType()
	}
	return nil
}
