package journal

import (
	"context"
	"time"
)

// Recorder persists run outcome summaries for the reporting layer.
type Recorder interface {
	Record(ctx context.Context, snapshot *RunSnapshot) error
	Close() error
}

// RunSnapshot is the structured summary of one pipeline run.
type RunSnapshot struct {
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Items      []ItemOutcome
}

// ItemOutcome is one per-sensor or per-graph result within a run.
type ItemOutcome struct {
	Config    string
	Kind      Kind
	ItemID    string
	OK        bool
	Code      string
	Detail    string
	Timestamp time.Time
}

// Kind distinguishes the item families a run reports on.
type Kind string

const (
	KindSensor Kind = "sensor"
	KindGraph  Kind = "graph"
	KindConfig Kind = "config"
)
