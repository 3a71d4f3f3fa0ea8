package jsonstream

import "github.com/google/uuid"

// frame is the runtime parse state for one JSON object (or the root).
// Frames are created when the engine enters a proxied object and destroyed
// when its closing '}' is consumed and its parent is notified.
type frame struct {
	id     uuid.UUID
	schema *schema
	parent *frame

	values    map[string]*Value
	processed map[string]bool
	seenOrder []string // json_names observed so far, in input order (for the out-of-order diagnostic)

	isOpened            bool
	isClosed            bool
	isContinued         bool
	currentContinuation string

	// keyValue holds the reserved "(key)" slot populated when this frame
	// was pushed as an element of an object-as-map continuation, so the
	// child type's key member can surface it.
	keyValue *Value

	// live is the suspending continuation currently in progress at this
	// frame, if any. Only one suspending member per frame may be live at a
	// time.
	live *continuation

	// raw accumulates members not named by the schema, for the RawValues
	// catch-all member.
	raw map[string]*Value
}

func (f *frame) rawValuesInto() map[string]*Value   { return f.raw }
func (f *frame) setRawValues(m map[string]*Value) { f.raw = m }

func newFrame(sch *schema, parent *frame) *frame {
	return &frame{
		id:        uuid.New(),
		schema:    sch,
		parent:    parent,
		values:    map[string]*Value{},
		processed: map[string]bool{},
	}
}

func (f *frame) markProcessed(name string) {
	f.processed[name] = true
}

func (f *frame) markSeen(name string) {
	f.seenOrder = append(f.seenOrder, name)
}

// seenBefore reports whether name was scanned past earlier than the
// member currently being requested, for the out-of-order diagnostic.
func (f *frame) seenBefore(name string) bool {
	for _, n := range f.seenOrder {
		if n == name {
			return true
		}
	}
	return false
}
