package event

import "fmt"

// Validate checks a recorded event sequence against the ordering rules the
// Emitter enforces. A sequence that ends early, as after a consumer stopped,
// is valid.
func Validate(events []Event) error {
	var openID string
	open := false
	for i, ev := range events {
		if i > 0 {
			if prev := events[i-1].Type; prev == TypeDone || prev == TypeError {
				return fmt.Errorf("event %d (%s) follows terminal %s", i, ev.Type, prev)
			}
		}
		switch ev.Type {
		case TypeTextDelta:
			if open {
				return fmt.Errorf("event %d: text while tool call %s is open", i, openID)
			}
		case TypeToolStarted:
			if open {
				return fmt.Errorf("event %d: tool call %s started while %s is open", i, ev.ToolCallID, openID)
			}
			open, openID = true, ev.ToolCallID
		case TypeToolFinished:
			if !open || ev.ToolCallID != openID {
				return fmt.Errorf("event %d: tool call %s finished without being started", i, ev.ToolCallID)
			}
			open, openID = false, ""
		case TypeDone:
			if open {
				return fmt.Errorf("event %d: done while tool call %s is open", i, openID)
			}
		case TypeError:
		default:
			return fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
	}
	return nil
}

// Text concatenates the text_delta payloads of events.
func Text(events []Event) string {
	n := 0
	for _, ev := range events {
		n += len(ev.Text)
	}
	buf := make([]byte, 0, n)
	for _, ev := range events {
		if ev.Type == TypeTextDelta {
			buf = append(buf, ev.Text...)
		}
	}
	return string(buf)
}

// Types lists the type of each event, for compact assertions.
func Types(events []Event) []Type {
	out := make([]Type, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}
