// Package models defines the tracked document aggregate: lifecycle status,
// current stage metadata, and the embedded routing ledger.
package models

import (
	"math"
	"time"

	"github.com/google/uuid"

	"doctrack/pkg/domerrors"
)

// Status is the document lifecycle state. String values are stored and must
// round-trip exactly.
type Status string

const (
	StatusSubmitted   Status = "Submitted"
	StatusUnderReview Status = "Under Review"
	StatusApproved    Status = "Approved"
	StatusRejected    Status = "Rejected"
	StatusProcessing  Status = "Processing"
	StatusOnHold      Status = "On Hold"
	StatusReturned    Status = "Returned"
)

// Terminal reports whether no further routing transition is defined for the
// status.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusReturned:
		return true
	}
	return false
}

// Active reports whether the document still sits at a stage and is subject to
// delay detection.
func (s Status) Active() bool { return !s.Terminal() }

// Action labels a routing ledger entry. String values are stored and must
// round-trip exactly.
type Action string

const (
	ActionReceived  Action = "received"
	ActionReviewed  Action = "reviewed"
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionForwarded Action = "forwarded"
	ActionOnHold    Action = "on_hold"
	ActionReturned  Action = "returned"
)

// Priority orders documents for handlers; it does not affect routing.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RoutingEntry is one recorded stage transition. ProcessingTime is hours spent
// at the stage this entry opened, rounded to one decimal. It stays 0 until the
// next transition closes the entry out; the most recent entry is always open.
type RoutingEntry struct {
	Office         string    `json:"office"`
	Action         Action    `json:"action"`
	Handler        string    `json:"handler"`
	Timestamp      time.Time `json:"timestamp"`
	Comments       string    `json:"comments"`
	ProcessingTime float64   `json:"processingTime"`
}

// ScanEntry records one physical scan of the document at an office. It is an
// access trail only; scans never drive lifecycle state.
type ScanEntry struct {
	ScannedBy string    `json:"scannedBy"`
	Office    string    `json:"office"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// Document is the tracked aggregate. RoutingHistory and ScanHistory are
// embedded append-only arrays, persisted with the document rather than joined.
type Document struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`

	Status         Status      `json:"status"`
	CurrentOffice  string      `json:"currentOffice"`
	NextOffice     string      `json:"nextOffice"`
	CurrentHandler *uuid.UUID  `json:"currentHandler,omitempty"`
	AssignedTo     []uuid.UUID `json:"assignedTo,omitempty"`
	Priority       Priority    `json:"priority"`

	DateUploaded      time.Time `json:"dateUploaded"`
	CurrentStageStart time.Time `json:"currentStageStartTime"`
	ExpectedHours     float64   `json:"expectedProcessingTime"`
	IsDelayed         bool      `json:"isDelayed"`
	DelayedHours      int       `json:"delayedHours"`

	RoutingHistory []RoutingEntry `json:"routingHistory"`
	ScanHistory    []ScanEntry    `json:"scanHistory"`

	SubmittedBy string   `json:"submittedBy"`
	Department  string   `json:"department"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`

	Reviewer   string     `json:"reviewer,omitempty"`
	ReviewedAt *time.Time `json:"reviewDate,omitempty"`
}

// HoursBetween converts the span between two instants to hours.
func HoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

// RoundHours rounds a duration in hours to one decimal place, the precision
// stored on closed ledger entries.
func RoundHours(h float64) float64 {
	return math.Round(h*10) / 10
}

// CloseOpenEntry retroactively stamps the most recent ledger entry with the
// hours elapsed between its timestamp and now. Invoked at the start of every
// transition, before the new entry is appended, so the invariant stays in one
// auditable place.
func (d *Document) CloseOpenEntry(now time.Time) {
	if len(d.RoutingHistory) == 0 {
		return
	}
	last := &d.RoutingHistory[len(d.RoutingHistory)-1]
	elapsed := HoursBetween(last.Timestamp, now)
	if elapsed < 0 {
		elapsed = 0
	}
	last.ProcessingTime = RoundHours(elapsed)
}

// AppendEntry appends a new open ledger entry. Callers must have closed the
// previous entry first.
func (d *Document) AppendEntry(entry RoutingEntry) {
	entry.ProcessingTime = 0
	d.RoutingHistory = append(d.RoutingHistory, entry)
}

// EnsureTransitionable rejects transitions on documents already in a terminal
// state.
func (d *Document) EnsureTransitionable() error {
	if d.Status.Terminal() {
		return domerrors.New(domerrors.CodeConflict, "document is in a terminal state")
	}
	return nil
}

// TotalProcessingHours sums ProcessingTime across all ledger entries.
func (d *Document) TotalProcessingHours() float64 {
	var total float64
	for _, entry := range d.RoutingHistory {
		total += entry.ProcessingTime
	}
	return total
}
