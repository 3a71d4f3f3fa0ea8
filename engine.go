package jsonstream

import "github.com/rs/zerolog"

// engine owns the tokenizer and the frame stack driving lazy, consumer-
// driven advance through the document. There is exactly one engine per
// document read; it is never shared across goroutines and performs no
// background work of its own.
type engine struct {
	tok   *Tokenizer
	stack []*frame // last element is top-of-stack
	log   zerolog.Logger
}

func newEngine(in Input, opts Options) *engine {
	tok := NewTokenizer(in)
	tok.maxDepth = opts.maxDepth
	tok.decimalMode = opts.decimalMode
	tok.log = opts.log
	return &engine{tok: tok, log: opts.log}
}

func (e *engine) top() *frame {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}

func (e *engine) push(f *frame) {
	e.stack = append(e.stack, f)
	e.log.Debug().Str("frame", f.id.String()).Msg("push frame")
}

func (e *engine) pop() {
	f := e.top()
	e.stack = e.stack[:len(e.stack)-1]
	e.log.Debug().Str("frame", f.id.String()).Msg("pop frame")
}

// position renders the frame stack as a human-readable position trail.
func (e *engine) position() string { return renderPosition(e.stack) }

// checkOwner verifies that caller is still the top frame, raising
// ErrProxyMisuse otherwise (e.g. the parent proxy was called while a child
// sequence or nested proxy is still live).
func (e *engine) checkOwner(caller *frame) error {
	if e.top() != caller {
		return proxyMisuseError(e, "parent proxy called out of order")
	}
	return nil
}

// readMembersToContinuation advances f until either it is closed, or its
// next member is a suspending one awaiting access.
func (e *engine) readMembersToContinuation(f *frame) error {
	if f.isClosed || f.currentContinuation != "" {
		return nil
	}
	if !f.isOpened {
		if _, err := e.tok.readCharSkipWhitespace('{'); err != nil {
			return err
		}
		f.isOpened = true
		r, err := e.tok.peekSignificant()
		if err != nil {
			return err
		}
		if r == '}' {
			if _, err := e.tok.in.ReadCodepoint(); err != nil {
				return err
			}
			f.isClosed = true
			return nil
		}
	} else if f.isContinued {
		sep, err := e.tok.readCharSkipWhitespace(0)
		if err != nil {
			return err
		}
		switch sep {
		case '}':
			f.isClosed = true
			return nil
		case ',':
			f.isContinued = false
		default:
			return formatError(e, "expected ',' or '}', found %q", sep)
		}
	}

	for {
		if _, err := e.tok.readCharSkipWhitespace('"'); err != nil {
			return err
		}
		name, err := e.tok.readString()
		if err != nil {
			return err
		}
		if f.processed[name] {
			return schemaError(e, "member %q occurs again after it was processed", name)
		}
		if _, err := e.tok.readCharSkipWhitespace(':'); err != nil {
			return err
		}

		m := f.schema.byName[name]
		switch {
		case m == nil && f.schema.rawMember != nil:
			v, next, err := e.tok.readNodeDetect(false)
			if err != nil {
				return err
			}
			if f.rawValuesInto() == nil {
				f.setRawValues(map[string]*Value{})
			}
			f.rawValuesInto()[name] = v
			f.markSeen(name)
			if err := e.afterMember(f, next); err != nil {
				if err == errContinueLoop {
					continue
				}
				return err
			}
			return nil
		case m == nil:
			next, err := e.tok.skipNodeDetect()
			if err != nil {
				return err
			}
			f.markSeen(name)
			if err := e.afterMember(f, next); err != nil {
				if err == errContinueLoop {
					continue
				}
				return err
			}
			return nil
		case m.mode.IsSuspending():
			f.currentContinuation = name
			f.isContinued = true
			f.markSeen(name)
			return nil
		default:
			v, next, err := e.tok.readNodeDetect(false)
			if err != nil {
				return err
			}
			if err := e.checkValueConstraints(m, v); err != nil {
				return err
			}
			f.values[name] = v
			f.markSeen(name)
			if err := e.afterMember(f, next); err != nil {
				if err == errContinueLoop {
					continue
				}
				return err
			}
			return nil
		}
	}
}

// checkValueConstraints validates a fully materialized value against a
// member's declared accepted_json_types/max_length/max_depth/max_size
// bounds. These apply to one materialized value at a time: for a streaming
// member that means per element, not the whole undrained sequence.
func (e *engine) checkValueConstraints(m *member, v *Value) error {
	if !acceptsKind(m.acceptedTypes, v) {
		return constraintError(e, "member %q has JSON type %s, not among accepted types %v", m.jsonName, jsonTypeName(v), m.acceptedTypes)
	}
	if m.maxLength > 0 {
		if s, ok := v.AsString(); ok && len(s) > m.maxLength {
			return constraintError(e, "member %q exceeds maximum length %d", m.jsonName, m.maxLength)
		}
	}
	if m.maxDepth > 0 {
		if d := valueDepth(v); d > m.maxDepth {
			return constraintError(e, "member %q exceeds maximum nesting depth %d", m.jsonName, m.maxDepth)
		}
	}
	if m.maxSize > 0 {
		if n := valueSize(v); n > m.maxSize {
			return constraintError(e, "member %q exceeds maximum size %d", m.jsonName, m.maxSize)
		}
	}
	return nil
}

// errContinueLoop is a sentinel used internally by afterMember to tell its
// caller to loop for another member rather than return.
var errContinueLoop = &sentinelErr{"continue"}

type sentinelErr struct{ s string }

func (s *sentinelErr) Error() string { return s.s }

// afterMember consumes the separator following a just-read simple member
// and reports whether the frame closed (nil, frame closed) or there is
// more to read (errContinueLoop).
func (e *engine) afterMember(f *frame, next rune) error {
	switch next {
	case ',':
		if _, err := e.tok.in.ReadCodepoint(); err != nil {
			return err
		}
		return errContinueLoop
	case '}':
		if _, err := e.tok.in.ReadCodepoint(); err != nil {
			return err
		}
		f.isClosed = true
		return nil
	default:
		return formatError(e, "expected ',' or '}', found %q", next)
	}
}

// resolveValue looks up the already-scanned generic value (or null/absent)
// for a MappedValue member, marks it processed, and reports whether it was
// present.
func (e *engine) resolveValue(f *frame, m *member) (*Value, bool, error) {
	if err := e.checkOwner(f); err != nil {
		return nil, false, err
	}
	if f.processed[m.jsonName] {
		v, ok := f.values[m.jsonName]
		return v, ok, nil
	}
	// A single readMembersToContinuation call may resolve several leading
	// simple members before it stops at the first suspending boundary it
	// meets — which need not be m itself. Check f.values after every call,
	// not just whether the boundary happens to match m's name.
	check := func() (*Value, bool, bool) {
		if v, ok := f.values[m.jsonName]; ok {
			f.markProcessed(m.jsonName)
			return v, true, true
		}
		return nil, false, false
	}
	if err := e.readMembersToContinuation(f); err != nil {
		return nil, false, err
	}
	if v, ok, done := check(); done {
		return v, ok, nil
	}
	for f.currentContinuation != "" && f.currentContinuation != m.jsonName && !f.isClosed {
		if err := e.skipContinuation(f); err != nil {
			return nil, false, err
		}
		if err := e.readMembersToContinuation(f); err != nil {
			return nil, false, err
		}
		if v, ok, done := check(); done {
			return v, ok, nil
		}
	}
	if f.currentContinuation == m.jsonName {
		// A later-declared suspending member's slot landed on this name;
		// shouldn't happen for a MappedValue member, but guard anyway.
		return nil, false, schemaError(e, "member %q is not a simple value in the input", m.jsonName)
	}
	v, ok := f.values[m.jsonName]
	f.markProcessed(m.jsonName)
	return v, ok, nil
}

// resolveRaw implements the RawValues catch-all member: drains the frame
// fully (RawValues collects "other members of the object") and returns the
// accumulated map.
func (e *engine) resolveRaw(f *frame) (map[string]*Value, error) {
	if err := e.checkOwner(f); err != nil {
		return nil, err
	}
	for !f.isClosed {
		if err := e.readMembersToContinuation(f); err != nil {
			return nil, err
		}
		if f.currentContinuation != "" {
			if err := e.skipContinuation(f); err != nil {
				return nil, err
			}
		}
	}
	if f.rawValuesInto() == nil {
		return map[string]*Value{}, nil
	}
	return f.rawValuesInto(), nil
}

// drainFrame advances f to closed, skipping any remaining members
// (including schema members whose streaming continuation was never
// touched) without materializing them. Called once a struct's own fields
// have all been resolved, so the frame's closing brace is consumed before
// its parent (or caller) proceeds.
func (e *engine) drainFrame(f *frame) error {
	if err := e.checkOwner(f); err != nil {
		return err
	}
	for !f.isClosed {
		if err := e.readMembersToContinuation(f); err != nil {
			return err
		}
		if f.currentContinuation != "" {
			if err := e.skipContinuation(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipContinuation is used when the frame scan must move past a
// suspending member that the caller isn't currently asking for (e.g. a
// RawValues drain, or resolving a later simple member past an unread
// streaming one). It skips the member's value unread and marks the member
// processed, so a later request for it is a SchemaError.
func (e *engine) skipContinuation(f *frame) error {
	name := f.currentContinuation
	f.currentContinuation = ""
	r, err := e.tok.peekSignificant()
	if err != nil {
		return err
	}
	switch r {
	case '[':
		if _, err := e.tok.in.ReadCodepoint(); err != nil {
			return err
		}
		if err := e.skipArray(); err != nil {
			return err
		}
	case '{':
		if _, err := e.tok.in.ReadCodepoint(); err != nil {
			return err
		}
		if err := e.skipObject(); err != nil {
			return err
		}
	case 'n':
		if err := e.tok.expectLiteral("ull"); err != nil {
			return err
		}
	default:
		return formatError(e, "expected '[', '{', or null for %q, found %q", name, r)
	}
	f.isContinued = true
	f.markProcessed(name)
	return nil
}

func (e *engine) skipArray() error {
	r, err := e.tok.peekSignificant()
	if err != nil {
		return err
	}
	if r == ']' {
		_, err := e.tok.in.ReadCodepoint()
		return err
	}
	for {
		next, err := e.tok.skipNodeDetect()
		if err != nil {
			return err
		}
		switch next {
		case ',':
			if _, err := e.tok.in.ReadCodepoint(); err != nil {
				return err
			}
		case ']':
			_, err := e.tok.in.ReadCodepoint()
			return err
		default:
			return formatError(e, "expected ',' or ']', found %q", next)
		}
	}
}

func (e *engine) skipObject() error {
	r, err := e.tok.readCharSkipWhitespace(0)
	if err != nil {
		return err
	}
	if r == '}' {
		return nil
	}
	for {
		if r != '"' {
			return formatError(e, "expected string key, found %q", r)
		}
		if _, err := e.tok.readString(); err != nil {
			return err
		}
		if _, err := e.tok.readCharSkipWhitespace(':'); err != nil {
			return err
		}
		next, err := e.tok.skipNodeDetect()
		if err != nil {
			return err
		}
		switch next {
		case ',':
			if _, err := e.tok.in.ReadCodepoint(); err != nil {
				return err
			}
			r, err = e.tok.readCharSkipWhitespace(0)
			if err != nil {
				return err
			}
		case '}':
			if _, err := e.tok.in.ReadCodepoint(); err != nil {
				return err
			}
			return nil
		default:
			return formatError(e, "expected ',' or '}', found %q", next)
		}
	}
}

// enterSuspending resolves ordering for a streaming or proxy-object member
// and then returns a
// continuation positioned to drive the member's sequence (or, for a
// ProxyObject single nested object, a nil continuation and the child frame
// with its '{' consumed, which the caller pushes). An absent or null member
// yields an exhausted continuation.
func (e *engine) enterSuspending(f *frame, m *member) (cont *continuation, childFrame *frame, err error) {
	if err := e.checkOwner(f); err != nil {
		return nil, nil, err
	}
	if f.live != nil {
		return nil, nil, proxyMisuseError(e, "parent proxy called out of order")
	}
	if err := e.readMembersToContinuation(f); err != nil {
		return nil, nil, err
	}

	for f.currentContinuation != "" && f.currentContinuation != m.jsonName && !f.isClosed {
		if err := e.skipContinuation(f); err != nil {
			return nil, nil, err
		}
		if err := e.readMembersToContinuation(f); err != nil {
			return nil, nil, err
		}
	}

	if f.currentContinuation != m.jsonName {
		if f.processed[m.jsonName] {
			return nil, nil, schemaError(e, "member %q already accessed before", m.jsonName)
		}
		if f.seenBefore(m.jsonName) {
			return nil, nil, schemaError(e, "member %q expected earlier; scanned past it", m.jsonName)
		}
		f.markProcessed(m.jsonName)
		if m.minOccur > 0 && m.mode.IsStreaming() {
			return nil, nil, constraintError(e, "minimum occurrences for %q is %d, found 0", m.jsonName, m.minOccur)
		}
		return &continuation{eng: e, parent: f, member: m, exhausted: true}, nil, nil
	}

	f.currentContinuation = ""
	r, err := e.tok.readCharSkipWhitespace(0)
	if err != nil {
		return nil, nil, err
	}
	switch r {
	case '[':
		c := &continuation{eng: e, parent: f, member: m, isArray: true}
		f.live = c
		e.logSuspend(f, m)
		return c, nil, nil
	case '{':
		if m.mode == ModeProxyObject {
			cf := newFrame(nil, f)
			cf.isOpened = true
			e.logSuspend(f, m)
			return nil, cf, nil
		}
		c := &continuation{eng: e, parent: f, member: m, isArray: false}
		f.live = c
		e.logSuspend(f, m)
		return c, nil, nil
	case 'n':
		if err := e.tok.expectLiteral("ull"); err != nil {
			return nil, nil, err
		}
		f.markProcessed(m.jsonName)
		if m.minOccur > 0 && m.mode.IsStreaming() {
			return nil, nil, schemaError(e, "member %q is required but is null", m.jsonName)
		}
		return &continuation{eng: e, parent: f, member: m, exhausted: true, wasNull: true}, nil, nil
	default:
		return nil, nil, formatError(e, "expected '[', '{', or null for %q, found %q", m.jsonName, r)
	}
}
