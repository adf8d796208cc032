package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/scheduleworks/client/internal/domain/entities"
	"github.com/scheduleworks/client/internal/ports"
)

const displayTimeLayout = "2006-01-02 15:04"

// Terminal renders the schedule list as a table on an io.Writer. It is a
// pure projection of the list plus the filter; it holds no list state of its
// own.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

var _ ports.View = (*Terminal)(nil)

// NewTerminal creates a terminal view writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Render(list []entities.Schedule, filter ports.Filter) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if summary := filterSummary(filter); summary != "" {
		fmt.Fprintln(t.out, summary)
	}

	table := uitable.New()
	table.MaxColWidth = 48
	table.AddRow("ID", "TITLE", "START", "END", "STATUS", "PRIORITY")
	for _, s := range list {
		table.AddRow(
			s.ID,
			s.Title,
			s.StartDate.Local().Format(displayTimeLayout),
			s.EndDate.Local().Format(displayTimeLayout),
			statusLabel(s.Status),
			priorityLabel(s.Priority),
		)
		if s.Description != "" {
			table.AddRow("", s.Description, "", "", "", "")
		}
	}
	fmt.Fprintln(t.out, table)
}

func (t *Terminal) ShowLoading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, "Loading schedules...")
}

func (t *Terminal) ShowEmpty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, "No schedules found.")
}

func (t *Terminal) Notify(message string, severity ports.Severity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch severity {
	case ports.SeverityError:
		color.New(color.FgRed).Fprintln(t.out, message)
	case ports.SeveritySuccess:
		color.New(color.FgGreen).Fprintln(t.out, message)
	default:
		color.New(color.FgBlue).Fprintln(t.out, message)
	}
}

func filterSummary(f ports.Filter) string {
	if f.IsZero() {
		return ""
	}
	parts := make([]string, 0, 3)
	if f.Status != "" {
		parts = append(parts, "status="+string(f.Status))
	}
	if f.Date != "" {
		parts = append(parts, "date="+f.Date)
	}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.Search))
	}
	return "Filter: " + strings.Join(parts, " ")
}

func statusLabel(s entities.ScheduleStatus) string {
	switch s {
	case entities.StatusPending:
		return color.YellowString("pending")
	case entities.StatusInProgress:
		return color.CyanString("in progress")
	case entities.StatusCompleted:
		return color.GreenString("completed")
	case entities.StatusCancelled:
		return color.RedString("cancelled")
	default:
		return string(s)
	}
}

func priorityLabel(p entities.Priority) string {
	switch p {
	case entities.PriorityHigh:
		return color.RedString("high")
	case entities.PriorityMedium:
		return color.YellowString("medium")
	case entities.PriorityLow:
		return color.GreenString("low")
	default:
		return string(p)
	}
}
