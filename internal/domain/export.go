package domain

import "time"

type ExportStatus string

const (
	ExportStatusQueued  ExportStatus = "queued"
	ExportStatusRunning ExportStatus = "running"
	ExportStatusDone    ExportStatus = "done"
	ExportStatusFailed  ExportStatus = "failed"
)

type ExportFormat string

const (
	ExportFormatOrdersCSV  ExportFormat = "orders_csv"
	ExportFormatOrdersJSON ExportFormat = "orders_json"
)

// ValidExportFormat reports whether f is a supported export format.
func ValidExportFormat(f string) bool {
	switch ExportFormat(f) {
	case ExportFormatOrdersCSV, ExportFormatOrdersJSON:
		return true
	}
	return false
}

// ExportJob is an asynchronous export of event data. The artifact is kept
// on the row until the retention window has passed.
type ExportJob struct {
	ID           string
	EventID      string
	Format       ExportFormat
	StatusFilter string
	Status       ExportStatus
	Payload      []byte
	ContentType  string
	Error        string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}
