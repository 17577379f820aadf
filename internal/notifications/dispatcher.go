// Package notifications delivers engine events to staff. Delivery mechanics
// live behind Dispatcher; the engine never waits on or fails because of them.
package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FinalAssignment is sent when a staff member is moved to a final assignment.
type FinalAssignment struct {
	AssignmentID int64     `json:"assignment_id"`
	StaffID      int64     `json:"staff_id"`
	ShiftID      int64     `json:"shift_id"`
	EventID      int64     `json:"event_id"`
	EventName    string    `json:"event_name"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// ClockOutSummary is sent after a completed clock-out when enabled.
type ClockOutSummary struct {
	EntryID      int64     `json:"entry_id"`
	StaffID      int64     `json:"staff_id"`
	ClockIn      time.Time `json:"clock_in"`
	ClockOut     time.Time `json:"clock_out"`
	GrossMinutes int       `json:"gross_minutes"`
	BreakMinutes int       `json:"break_minutes"`
	NetMinutes   int       `json:"net_minutes"`
}

// Dispatcher delivers notifications.
type Dispatcher interface {
	NotifyFinalAssignment(ctx context.Context, n FinalAssignment) error
	NotifyClockOutSummary(ctx context.Context, n ClockOutSummary) error
}

// LogDispatcher writes notifications as structured log lines.
type LogDispatcher struct {
	logger zerolog.Logger
}

// NewLogDispatcher returns a dispatcher logging to logger.
func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With().Str("component", "notifications").Logger()}
}

func (d *LogDispatcher) NotifyFinalAssignment(_ context.Context, n FinalAssignment) error {
	d.logger.Info().
		Str("kind", "final_assignment").
		Int64("assignment_id", n.AssignmentID).
		Int64("staff_id", n.StaffID).
		Int64("shift_id", n.ShiftID).
		Int64("event_id", n.EventID).
		Str("event_name", n.EventName).
		Time("start_time", n.StartTime).
		Time("end_time", n.EndTime).
		Msg("Notify staff of final assignment")
	return nil
}

func (d *LogDispatcher) NotifyClockOutSummary(_ context.Context, n ClockOutSummary) error {
	d.logger.Info().
		Str("kind", "clock_out_summary").
		Int64("entry_id", n.EntryID).
		Int64("staff_id", n.StaffID).
		Time("clock_in", n.ClockIn).
		Time("clock_out", n.ClockOut).
		Int("gross_minutes", n.GrossMinutes).
		Int("break_minutes", n.BreakMinutes).
		Int("net_minutes", n.NetMinutes).
		Msg("Send clock-out summary")
	return nil
}

// Recorder keeps notifications in memory. Tests use it to assert what the
// engine dispatched.
type Recorder struct {
	mu        sync.Mutex
	finals    []FinalAssignment
	summaries []ClockOutSummary
	err       error
}

// NewRecorder returns a Recorder that answers every call with err.
func NewRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

func (r *Recorder) NotifyFinalAssignment(_ context.Context, n FinalAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finals = append(r.finals, n)
	return r.err
}

func (r *Recorder) NotifyClockOutSummary(_ context.Context, n ClockOutSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, n)
	return r.err
}

// Finals returns the final-assignment notifications received so far.
func (r *Recorder) Finals() []FinalAssignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FinalAssignment(nil), r.finals...)
}

// Summaries returns the clock-out summaries received so far.
func (r *Recorder) Summaries() []ClockOutSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ClockOutSummary(nil), r.summaries...)
}
