package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrNoFiles            = errors.New("invalid_files")
	ErrTooManyFiles       = errors.New("too_many_files")
	ErrInvalidPriority    = errors.New("invalid_priority")
	ErrInvalidMergeFormat = errors.New("invalid_merge_format")
	ErrInvalidFileName    = errors.New("invalid_file_name")
	ErrInvalidFileType    = errors.New("invalid_file_type")
	ErrFileTooLarge       = errors.New("file_too_large")
)

// ValidationFailures lists the errors above, in the order the rules
// are checked. The first failing rule wins.
var ValidationFailures = []error{
	ErrInvalidName,
	ErrNoFiles,
	ErrTooManyFiles,
	ErrInvalidPriority,
	ErrInvalidMergeFormat,
	ErrInvalidFileName,
	ErrInvalidFileType,
	ErrFileTooLarge,
}

type Service interface {
	// Create validates the request and returns the job summary plus an
	// advisory cost estimate for the authenticated user. No mutation.
	Create(ctx context.Context, userID string, subscriptionType string, req CreateJobRequest) (*CreateJobResponse, error)
}
