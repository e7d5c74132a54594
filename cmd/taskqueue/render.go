package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/taskqueue/internal/fetch"
	"github.com/utkarsh5026/taskqueue/queue"
)

const maxErrorWidth = 60

type stateLookup interface {
	RecordedState(name string) (queue.State, bool)
}

// renderResults prints one row per task in registration order, followed by a
// one-line summary.
func renderResults(w io.Writer, q stateLookup, names []string, results queue.Results) error {
	counts := make(map[queue.State]int)

	table := tablewriter.NewWriter(w)
	table.Header("Task", "State", "Result")
	for _, name := range names {
		state, _ := q.RecordedState(name)
		counts[state]++

		v, present := results[name]
		if err := table.Append(name, stateCell(state), resultCell(v, present)); err != nil {
			return fmt.Errorf("rendering row %q: %w", name, err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering results: %w", err)
	}

	_, err := color.New(color.Bold).Fprintf(w, "%d completed, %d failed, %d cancelled\n",
		counts[queue.Completed], counts[queue.Failed], counts[queue.Cancelled])
	return err
}

func stateCell(s queue.State) string {
	switch s {
	case queue.Completed:
		return color.GreenString(s.String())
	case queue.Failed:
		return color.RedString(s.String())
	case queue.Cancelled:
		return color.YellowString(s.String())
	default:
		return s.String()
	}
}

func resultCell(v any, present bool) string {
	if !present {
		return "(removed)"
	}
	switch v := v.(type) {
	case nil:
		return "-"
	case *queue.TaskFailure:
		return fetch.Truncate(oneLine(v.Err.Error()), maxErrorWidth)
	case string:
		return oneLine(v)
	default:
		return fmt.Sprint(v)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
