package entity

import "fmt"

// Status is a processing lifecycle state recorded in the status log.
type Status string

const (
	Ready      Status = "ready"
	Processing Status = "processing"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case Ready, Processing, Completed, Failed:
		return true
	}
	return false
}

// Terminal reports whether no further automatic transition is expected.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// OutboxStatus is the delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxProcessed  OutboxStatus = "processed"
	OutboxFailed     OutboxStatus = "failed"
)
