package tools

import "context"

// TimeLayout is the get_current_time result format (YYYY-MM-DD HH:MM:SS).
const TimeLayout = "2006-01-02 15:04:05"

type currentTimeTool struct {
	ctx Context
}

func (t *currentTimeTool) name() string {
	return "get_current_time"
}

func (t *currentTimeTool) definition() Definition {
	return Definition{
		Name:        "get_current_time",
		Description: "Get the current local date and time.",
		Parameters:  Object(nil),
	}
}

func (t *currentTimeTool) execute(_ context.Context, _ map[string]any) (string, error) {
	now := t.ctx.now().Format(TimeLayout)
	t.ctx.debugf("get_current_time: %s", now)
	return now, nil
}
