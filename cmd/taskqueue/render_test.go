package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/taskqueue/queue"
)

type fakeStates map[string]queue.State

func (f fakeStates) RecordedState(name string) (queue.State, bool) {
	s, ok := f[name]
	return s, ok
}

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestResultCell(t *testing.T) {
	assert.Equal(t, "(removed)", resultCell(nil, false))
	assert.Equal(t, "-", resultCell(nil, true))
	assert.Equal(t, "hello world", resultCell("hello\n  world", true))
	assert.Equal(t, "42", resultCell(42, true))

	failure := &queue.TaskFailure{Name: "t1", Err: errors.New("boom")}
	assert.Equal(t, "boom", resultCell(failure, true))

	long := &queue.TaskFailure{Name: "t1", Err: errors.New(strings.Repeat("e", 100))}
	assert.Equal(t, strings.Repeat("e", maxErrorWidth)+"...", resultCell(long, true))
}

func TestStateCell(t *testing.T) {
	disableColor(t)

	assert.Equal(t, "completed", stateCell(queue.Completed))
	assert.Equal(t, "failed", stateCell(queue.Failed))
	assert.Equal(t, "cancelled", stateCell(queue.Cancelled))
	assert.Equal(t, "running", stateCell(queue.Running))
}

func TestRenderResults(t *testing.T) {
	disableColor(t)

	states := fakeStates{
		"task1": queue.Completed,
		"task2": queue.Failed,
		"task3": queue.Cancelled,
		"task4": queue.Cancelled,
	}
	results := queue.Results{
		"task1": "body",
		"task2": &queue.TaskFailure{Name: "task2", Err: errors.New("status 500")},
		"task3": nil,
	}

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, states, []string{"task1", "task2", "task3", "task4"}, results))

	out := buf.String()
	for _, want := range []string{"task1", "body", "task2", "status 500", "task4", "(removed)"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "1 completed, 1 failed, 2 cancelled")
	assert.Less(t, strings.Index(out, "task1"), strings.Index(out, "task4"))
}
