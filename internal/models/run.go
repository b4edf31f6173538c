package models

import "time"

// RunStatus is the terminal or in-flight state of an analysis run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusCompleted RunStatus = "completed"
	RunStatusError     RunStatus = "error"
)

// DownloadStatus tracks the byte retrieval of a stored asset.
type DownloadStatus string

const (
	DownloadPending     DownloadStatus = "pending"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "completed"
	DownloadError       DownloadStatus = "error"
)

// AnalysisRun groups a target URL with the descriptors it produced.
type AnalysisRun struct {
	ID           string            `json:"id"`
	TargetURL    string            `json:"target_url"`
	BaseURL      string            `json:"base_url,omitempty"`
	Status       RunStatus         `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Assets       []AssetDescriptor `json:"assets"`
}

// StoredAsset is a persisted descriptor together with its download state.
type StoredAsset struct {
	ID             int64
	RunID          string
	Position       int
	Descriptor     AssetDescriptor
	DownloadStatus DownloadStatus
	DownloadPath   string
	CreatedAt      time.Time
}
