package jsonstream

import (
	"strconv"
	"strings"
)

// renderPosition renders the engine's frame stack as a human-readable
// position trail: already-read simple members shown as `"name": value,`,
// the member currently in progress shown as `"name": [... <n>` for a
// streaming member or `"name": ` for one about to be read, with each
// nesting level separated by `{ ... `.
func renderPosition(stack []*frame) string {
	if len(stack) == 0 {
		return "<start of document>"
	}
	var sb strings.Builder
	for i, f := range stack {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("{ ")
		writeFrameTrail(&sb, f)
	}
	for range stack {
		sb.WriteString(" }")
	}
	return sb.String()
}

func writeFrameTrail(sb *strings.Builder, f *frame) {
	first := true
	if f.schema != nil {
		for _, m := range f.schema.members {
			v, ok := f.values[m.jsonName]
			if !ok {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(`"`)
			sb.WriteString(m.jsonName)
			sb.WriteString(`": `)
			sb.WriteString(v.String())
		}
	}
	switch {
	case f.live != nil:
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(`"`)
		sb.WriteString(f.live.member.jsonName)
		sb.WriteString(`": [... `)
		sb.WriteString(strconv.Itoa(f.live.n))
	case f.currentContinuation != "":
		if !first {
			sb.WriteString(", ")
		}
		sb.WriteString(`"`)
		sb.WriteString(f.currentContinuation)
		sb.WriteString(`": `)
	}
}
