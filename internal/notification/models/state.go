package models

// ColdStartState is the tap-routing lifecycle.
type ColdStartState int

const (
	ColdStartIdle ColdStartState = iota
	ColdStartProcessing
	ColdStartReady
)

func (s ColdStartState) String() string {
	switch s {
	case ColdStartIdle:
		return "IDLE"
	case ColdStartProcessing:
		return "PROCESSING"
	case ColdStartReady:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// PendingColdStartTarget is a tap captured before the host wired its routing
// callbacks.
type PendingColdStartTarget struct {
	ProfileID      string `json:"profileId"`
	NotificationID string `json:"notificationId"`
}

// MetricsSnapshot is the observability view returned by the orchestrator.
// Counters are monotonic for the life of the process.
type MetricsSnapshot struct {
	TotalScheduled int64  `json:"totalScheduled"`
	TotalTapped    int64  `json:"totalTapped"`
	LastError      string `json:"lastError,omitempty"`
}
