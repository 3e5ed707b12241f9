// Package domain defines batch job validation inputs and the cost
// preview returned on job creation. Jobs themselves are persisted by
// an external collaborator; the core only validates and estimates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// MaxFilesPerJob caps the file list of one batch job.
	MaxFilesPerJob = 100
	// MaxFileSizeBytes is 50 MiB.
	MaxFileSizeBytes = 50 << 20
	// EstimateBytesPerPage is the coarse page heuristic: one page per
	// started 50 KiB. No document is parsed at this stage.
	EstimateBytesPerPage = 50 << 10

	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// MergeFormat enumerates the supported merged-output formats.
type MergeFormat string

const (
	MergeFormatNone MergeFormat = ""
	MergeFormatTxt  MergeFormat = "txt"
	MergeFormatMd   MergeFormat = "md"
	MergeFormatDocx MergeFormat = "docx"
)

// FileInput is one file reference in a job creation request.
type FileInput struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// CreateJobRequest is the raw job creation payload.
type CreateJobRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Files         []FileInput    `json:"files"`
	Priority      int            `json:"priority,omitempty"`
	MergeOutput   bool           `json:"mergeOutput,omitempty"`
	MergeFormat   MergeFormat    `json:"mergeFormat,omitempty"`
	OutputOptions map[string]any `json:"outputOptions,omitempty"`
}

// ValidatedFile carries the per-file page estimate.
type ValidatedFile struct {
	Name           string `json:"name"`
	SizeBytes      int64  `json:"sizeBytes"`
	EstimatedPages int    `json:"estimatedPages"`
}

// ValidatedJob is the validation output consumed by the eligibility
// check. It is transient and never persisted here.
type ValidatedJob struct {
	Name                string          `json:"name"`
	Description         string          `json:"description,omitempty"`
	Files               []ValidatedFile `json:"files"`
	Priority            int             `json:"priority"`
	MergeOutput         bool            `json:"mergeOutput"`
	MergeFormat         MergeFormat     `json:"mergeFormat,omitempty"`
	TotalEstimatedPages int             `json:"totalEstimatedPages"`
}

// JobSummary is the job echo returned to the client.
type JobSummary struct {
	ID             snowflake.ID `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	FileCount      int          `json:"fileCount"`
	TotalSizeBytes int64        `json:"totalSizeBytes"`
	Priority       int          `json:"priority"`
	MergeOutput    bool         `json:"mergeOutput"`
	MergeFormat    MergeFormat  `json:"mergeFormat,omitempty"`
	Status         string       `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// CostEstimate previews what processing the job would cost. It uses
// the display tariff, not the charge tariff.
type CostEstimate struct {
	EstimatedPages   int     `json:"estimatedPages"`
	EstimatedCostUSD float64 `json:"estimatedCostUSD"`
	CurrentUsage     int64   `json:"currentUsage"`
	PagesRemaining   int     `json:"pagesRemaining"`
	SubscriptionType string  `json:"subscriptionType"`
}

// CreateJobResponse is the job creation success payload.
type CreateJobResponse struct {
	BatchJob     JobSummary   `json:"batchJob"`
	CostEstimate CostEstimate `json:"costEstimate"`
}
