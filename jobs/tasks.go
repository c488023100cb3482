package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeDriftScan is the task type for the ledger/audit drift scan.
	TaskTypeDriftScan = "ledger:drift_scan"
)

// NewDriftScanTask constructs an Asynq task for the drift scan.
func NewDriftScanTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDriftScan, nil)
}
