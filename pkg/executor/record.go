package executor

import (
	"time"
)

// Status is the lifecycle state of one execution.
type Status string

const (
	// StatusPending means the execution is queued behind the concurrency bound.
	StatusPending Status = "pending"
	// StatusRunning means the execution holds a worker slot.
	StatusRunning Status = "running"
	// StatusCompleted means the execution settled successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the execution settled with a failure, including timeouts.
	StatusFailed Status = "failed"
	// StatusCancelled means the execution was stopped through its signal.
	StatusCancelled Status = "cancelled"
)

// Record tracks one execution in the executor's stats table.
type Record struct {
	ID          string        `json:"id"`
	CommandName string        `json:"command_name"`
	StartedAt   time.Time     `json:"started_at"`
	Status      Status        `json:"status"`
	Duration    time.Duration `json:"duration"`
}

// Stats summarizes the executor's history and current load.
type Stats struct {
	TotalExecuted    int64         `json:"total_executed"`
	Succeeded        int64         `json:"succeeded"`
	Failed           int64         `json:"failed"`
	Cancelled        int64         `json:"cancelled"`
	CurrentlyRunning int64         `json:"currently_running"`
	AverageDuration  time.Duration `json:"average_duration"`
}
