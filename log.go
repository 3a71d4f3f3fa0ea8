package jsonstream

// Debug-level instrumentation around suspend/resume points, wired through
// the zerolog.Logger carried by engine/Options (WithLogger). Cheap,
// always-present, silenced by default (zerolog.Nop()).

func (e *engine) logSuspend(f *frame, m *member) {
	e.log.Debug().
		Str("frame", f.id.String()).
		Str("member", m.jsonName).
		Str("mode", m.mode.String()).
		Msg("suspend")
}

func (e *engine) logResume(f *frame, m *member) {
	e.log.Debug().
		Str("frame", f.id.String()).
		Str("member", m.jsonName).
		Msg("resume")
}

func (e *engine) logConstraintCheck(m *member, n int) {
	e.log.Debug().
		Str("member", m.jsonName).
		Int("count", n).
		Int("min", m.minOccur).
		Int("max", m.maxOccur).
		Msg("occurrence check")
}
