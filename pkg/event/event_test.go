package event

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func recorder(limit int) (*[]Event, func(Event) bool) {
	var got []Event
	return &got, func(ev Event) bool {
		got = append(got, ev)
		return limit <= 0 || len(got) < limit
	}
}

func TestEmitterHappyPath(t *testing.T) {
	got, yield := recorder(0)
	e := NewEmitter(yield, WithClock(func() time.Time { return epoch }))

	require.NoError(t, e.ToolStarted("c1", "calculator", map[string]any{"expression": "10*5"}, `{"expression":"10*5"}`))
	require.NoError(t, e.ToolFinished("c1", "calculator", "50", false))
	require.NoError(t, e.TextDelta(""))
	require.NoError(t, e.TextDelta("The answer"))
	require.NoError(t, e.TextDelta(" is 50"))
	require.NoError(t, e.Done())

	assert.Equal(t, []Type{TypeToolStarted, TypeToolFinished, TypeTextDelta, TypeTextDelta, TypeDone}, Types(*got))
	assert.Equal(t, "The answer is 50", Text(*got))
	assert.Equal(t, epoch, (*got)[0].Time)
	assert.NoError(t, Validate(*got))
	assert.True(t, e.Terminated())

	started, finished := e.ToolCounts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
}

func TestEmitterRejectsOutOfOrder(t *testing.T) {
	_, yield := recorder(0)
	e := NewEmitter(yield)

	assert.ErrorIs(t, e.ToolFinished("c1", "calculator", "50", false), ErrNoOpenToolCall)
	require.NoError(t, e.ToolStarted("c1", "calculator", nil, "{}"))
	assert.ErrorIs(t, e.ToolStarted("c2", "get_current_time", nil, "{}"), ErrToolCallOpen)
	assert.ErrorIs(t, e.TextDelta("x"), ErrToolCallOpen)
	assert.ErrorIs(t, e.Done(), ErrToolCallOpen)
	assert.ErrorIs(t, e.ToolFinished("c2", "get_current_time", "", false), ErrNoOpenToolCall)
	require.NoError(t, e.ToolFinished("c1", "calculator", "50", false))
}

func TestEmitterNothingAfterTerminal(t *testing.T) {
	got, yield := recorder(0)
	e := NewEmitter(yield)
	require.NoError(t, e.Done())
	assert.ErrorIs(t, e.Done(), ErrStreamClosed)
	assert.ErrorIs(t, e.TextDelta("late"), ErrStreamClosed)
	assert.Len(t, *got, 1)

	got, yield = recorder(0)
	e = NewEmitter(yield)
	require.NoError(t, e.ToolStarted("c1", "calculator", nil, "{}"))
	require.NoError(t, e.Fail(KindProvider, errors.New("boom")))
	assert.ErrorIs(t, e.Done(), ErrStreamClosed)
	assert.ErrorIs(t, e.Fail(KindInternal, nil), ErrStreamClosed)
	require.Len(t, *got, 2)
	assert.Equal(t, KindProvider, (*got)[1].Kind)
	assert.Equal(t, "boom", (*got)[1].Message())
}

func TestEmitterStopsCallingYield(t *testing.T) {
	got, yield := recorder(1)
	e := NewEmitter(yield)

	assert.ErrorIs(t, e.TextDelta("one"), ErrConsumerStopped)
	assert.True(t, e.Stopped())
	assert.ErrorIs(t, e.TextDelta("two"), ErrConsumerStopped)
	assert.ErrorIs(t, e.Done(), ErrConsumerStopped)
	assert.Len(t, *got, 1)
}

func TestValidate(t *testing.T) {
	ok := []Event{
		{Type: TypeToolStarted, ToolCallID: "a"},
		{Type: TypeToolFinished, ToolCallID: "a"},
		{Type: TypeTextDelta, Text: "hi"},
		{Type: TypeDone},
	}
	assert.NoError(t, Validate(ok))
	assert.NoError(t, Validate(ok[:1]))

	bad := map[string][]Event{
		"after done":   {{Type: TypeDone}, {Type: TypeTextDelta}},
		"after error":  {{Type: TypeError}, {Type: TypeDone}},
		"unstarted":    {{Type: TypeToolFinished, ToolCallID: "a"}},
		"mismatched":   {{Type: TypeToolStarted, ToolCallID: "a"}, {Type: TypeToolFinished, ToolCallID: "b"}},
		"overlapping":  {{Type: TypeToolStarted, ToolCallID: "a"}, {Type: TypeToolStarted, ToolCallID: "b"}},
		"text in tool": {{Type: TypeToolStarted, ToolCallID: "a"}, {Type: TypeTextDelta}},
		"unknown":      {{Type: "progress"}},
	}
	for name, events := range bad {
		assert.Error(t, Validate(events), name)
	}
}

func TestEventString(t *testing.T) {
	assert.Equal(t, `text_delta("hi")`, Event{Type: TypeTextDelta, Text: "hi"}.String())
	assert.Equal(t, "error(TurnLimitExceeded: too many)", Event{Type: TypeError, Kind: KindTurnLimitExceeded, Err: errors.New("too many")}.String())
	assert.Equal(t, "done", Event{Type: TypeDone}.String())
	assert.Empty(t, Event{Type: TypeDone}.Message())
}
