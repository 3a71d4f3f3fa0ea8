package jsonstream

import "reflect"

// continuation is the runtime state of one suspended streaming member: an
// array, or an object being read as a map of elements. Exactly one
// continuation may be live on a frame at a time (frame.live).
type continuation struct {
	eng    *engine
	parent *frame
	member *member

	isArray   bool
	exhausted bool
	wasNull   bool
	n         int
}

// advance consumes the separator (or closing bracket) preceding the next
// element, updates occurrence bookkeeping, and reports whether another
// element follows. Shared by the array and object-as-map shapes, which
// differ only in the bracket character and whether a key precedes the
// value.
func (c *continuation) advance() (bool, error) {
	if c.exhausted {
		return false, nil
	}
	closeCh := rune(']')
	if !c.isArray {
		closeCh = '}'
	}
	if c.n > 0 {
		sep, err := c.eng.tok.readCharSkipWhitespace(0)
		if err != nil {
			return false, err
		}
		if sep == closeCh {
			return false, c.finish()
		}
		if sep != ',' {
			return false, formatError(c.eng, "expected ',' or %q, found %q", closeCh, sep)
		}
	} else {
		r, err := c.eng.tok.peekSignificant()
		if err != nil {
			return false, err
		}
		if r == closeCh {
			if _, err := c.eng.tok.in.ReadCodepoint(); err != nil {
				return false, err
			}
			return false, c.finish()
		}
	}
	c.n++
	if c.n > c.member.maxOccur {
		return false, constraintError(c.eng, "maximum occurrences for %q is %d", c.member.jsonName, c.member.maxOccur)
	}
	return true, nil
}

func (c *continuation) finish() error {
	c.exhausted = true
	c.eng.logConstraintCheck(c.member, c.n)
	if c.n < c.member.minOccur {
		return constraintError(c.eng, "minimum occurrences for %q is %d, found %d", c.member.jsonName, c.member.minOccur, c.n)
	}
	if c.parent != nil {
		c.parent.live = nil
		c.parent.isContinued = true
		c.parent.markProcessed(c.member.jsonName)
		c.eng.logResume(c.parent, c.member)
	}
	return nil
}

// nextScalar reads the next element's generic value for a Mapped
// continuation: an array element, or an object-as-map entry's value with
// its key discarded.
func (c *continuation) nextScalar() (*Value, bool, error) {
	more, err := c.advance()
	if err != nil || !more {
		return nil, false, err
	}
	if c.isArray {
		v, _, err := c.eng.tok.readNodeDetect(false)
		if err != nil {
			return nil, false, err
		}
		if err := c.eng.checkValueConstraints(c.member, v); err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	if _, err := c.eng.tok.readCharSkipWhitespace('"'); err != nil {
		return nil, false, err
	}
	if _, err := c.eng.tok.readString(); err != nil {
		return nil, false, err
	}
	if _, err := c.eng.tok.readCharSkipWhitespace(':'); err != nil {
		return nil, false, err
	}
	v, _, err := c.eng.tok.readNodeDetect(false)
	if err != nil {
		return nil, false, err
	}
	if err := c.eng.checkValueConstraints(c.member, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// nextChild reads the next element as a nested proxied object, pushing its
// frame and, for an object-as-map continuation, populating the child's
// reserved key slot from the entry's key.
func (c *continuation) nextChild(childSchema *schema) (*frame, bool, error) {
	more, err := c.advance()
	if err != nil || !more {
		return nil, false, err
	}
	var key string
	if !c.isArray {
		if _, err := c.eng.tok.readCharSkipWhitespace('"'); err != nil {
			return nil, false, err
		}
		k, err := c.eng.tok.readString()
		if err != nil {
			return nil, false, err
		}
		key = k
		if _, err := c.eng.tok.readCharSkipWhitespace(':'); err != nil {
			return nil, false, err
		}
	}
	if _, err := c.eng.tok.readCharSkipWhitespace('{'); err != nil {
		return nil, false, err
	}
	cf := newFrame(childSchema, c.parent)
	cf.isOpened = true
	if !c.isArray && childSchema != nil && childSchema.keyMember != nil {
		cf.keyValue = String(key)
	}
	return cf, true, nil
}

// close drains any unread elements without decoding them, so the parent
// frame's scan can resume past a sequence the consumer dropped unread.
// Dropped sequences are discarded, not materialized.
func (c *continuation) close() error {
	for {
		more, err := c.advance()
		if err != nil || !more {
			return err
		}
		if !c.isArray {
			if _, err := c.eng.tok.readCharSkipWhitespace('"'); err != nil {
				return err
			}
			if _, err := c.eng.tok.readString(); err != nil {
				return err
			}
			if _, err := c.eng.tok.readCharSkipWhitespace(':'); err != nil {
				return err
			}
		}
		if _, err := c.eng.tok.skipNodeDetect(); err != nil {
			return err
		}
	}
}

// binder is implemented by *Stream[T] and *Iterator[T] so decodeInto can
// wire a pending member resolution into a struct field without knowing the
// field's element type T at compile time: interface satisfaction holds
// uniformly across every instantiation of T, which is what makes this
// possible where reflect.New of a bare element type would not be (see
// schema.go's typeDescriptor for the mirror-image problem).
//
// Bind does NOT itself advance the tokenizer — it only records where to
// resolve from. A struct with two sibling streaming members cannot have
// both resolved during the initial decode pass: resolving the second
// would require having already scanned past the first's unread content.
// Resolution happens lazily, on the field's own first Next/HasNext call.
type binder interface {
	Bind(eng *engine, parent *frame, m *member)
}

// Stream is the pull-based, element-at-a-time view of a schema member
// declared as a streaming mode (array-as-continuation, or
// object-as-map-continuation). No background goroutine is involved: each
// Next call drives the tokenizer forward exactly as far as one element
// requires.
type Stream[T any] struct {
	eng    *engine
	parent *frame
	member *member

	cont        *continuation
	isProxy     bool
	childSchema *schema

	// pendingChild is the previously-returned proxy element's frame, kept
	// on the engine stack (undrained) so its own members stay lazily
	// accessible to the caller until the next advance — draining happens
	// on the NEXT call, not eagerly after decode.
	pendingChild *frame
}

// Bind records where this stream's member lives; resolving it against the
// tokenizer is deferred to the first Next call. See the binder doc comment.
func (s *Stream[T]) Bind(eng *engine, parent *frame, m *member) {
	s.eng, s.parent, s.member = eng, parent, m
}

func (s Stream[T]) elemType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// resolve performs the deferred engine.enterSuspending call on first use.
func (s *Stream[T]) resolve() error {
	if s.cont != nil || s.eng == nil {
		return nil
	}
	cont, _, err := s.eng.enterSuspending(s.parent, s.member)
	if err != nil {
		return err
	}
	s.cont = cont
	if s.member.mode.IsProxy() {
		s.isProxy = true
		t := reflect.TypeOf((*T)(nil)).Elem()
		if cs, err := getSchema(t); err == nil {
			s.childSchema = cs
		}
	}
	return nil
}

// Next advances the stream by one element. Once exhausted it returns
// (zero, false, nil); it never blocks waiting for more input to arrive
// from elsewhere, since the tokenizer reads synchronously from the same
// caller's goroutine.
func (s *Stream[T]) Next() (T, bool, error) {
	var zero T
	if s.eng == nil && s.cont == nil {
		return zero, false, nil
	}
	if err := s.resolve(); err != nil {
		return zero, false, err
	}
	if err := s.settlePending(); err != nil {
		return zero, false, err
	}
	if s.isProxy {
		cf, ok, err := s.cont.nextChild(s.childSchema)
		if err != nil || !ok {
			return zero, false, err
		}
		s.cont.eng.push(cf)
		out := reflect.New(reflect.TypeOf((*T)(nil)).Elem())
		if err := decodeInto(s.cont.eng, cf, out.Elem()); err != nil {
			s.cont.eng.pop()
			return zero, false, err
		}
		s.pendingChild = cf
		return out.Elem().Interface().(T), true, nil
	}
	v, ok, err := s.cont.nextScalar()
	if err != nil || !ok {
		return zero, false, err
	}
	rv, err := mapGenericValue(v, reflect.TypeOf((*T)(nil)).Elem(), s.cont.eng)
	if err != nil {
		return zero, false, err
	}
	return rv.Interface().(T), true, nil
}

// settlePending drains and pops the previously-returned proxy element's
// frame, if the caller didn't already finish it explicitly.
func (s *Stream[T]) settlePending() error {
	if s.pendingChild == nil {
		return nil
	}
	cf := s.pendingChild
	s.pendingChild = nil
	if err := s.cont.eng.drainFrame(cf); err != nil {
		return err
	}
	s.cont.eng.pop()
	return nil
}

// Close discards any unread elements. Calling Close on a stream that was
// never touched resolves and immediately drains it, so its parent frame
// can still advance past it.
func (s *Stream[T]) Close() error {
	if s.eng == nil && s.cont == nil {
		return nil
	}
	if err := s.resolve(); err != nil {
		return err
	}
	if err := s.settlePending(); err != nil {
		return err
	}
	return s.cont.close()
}

// Iterator is the has_next/next shaped view of a streaming member, for
// callers who prefer that idiom over Stream's combined Next. Both are
// equally valid consumers of the same continuation mechanics.
type Iterator[T any] struct {
	stream Stream[T]
	buf    *T
	bufErr error
	primed bool
}

func (it *Iterator[T]) Bind(eng *engine, parent *frame, m *member) { it.stream.Bind(eng, parent, m) }

func (it Iterator[T]) elemType() reflect.Type { return it.stream.elemType() }

func (it *Iterator[T]) prime() {
	if it.primed {
		return
	}
	v, ok, err := it.stream.Next()
	it.primed = true
	if err != nil {
		it.bufErr = err
		return
	}
	if ok {
		it.buf = &v
	}
}

// HasNext reports whether another element remains.
func (it *Iterator[T]) HasNext() (bool, error) {
	it.prime()
	if it.bufErr != nil {
		return false, it.bufErr
	}
	return it.buf != nil, nil
}

// Next returns the next element, reading ahead itself when HasNext was not
// called first. Calling it when no elements remain is a schema error.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	it.prime()
	if it.bufErr != nil {
		return zero, it.bufErr
	}
	if it.buf == nil {
		var pos positioner = tokenPositioner{}
		if it.stream.cont != nil {
			pos = it.stream.cont.eng
		}
		return zero, schemaError(pos, "Next called with no remaining elements")
	}
	v := *it.buf
	it.buf = nil
	it.primed = false
	return v, nil
}

// Close discards any unread elements.
func (it *Iterator[T]) Close() error { return it.stream.Close() }
