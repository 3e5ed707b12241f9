package domain

import (
	"strings"
)

// Validate checks a job request rule by rule, failing fast on the
// first violation, and produces the per-file page estimates plus the
// aggregate total. It has no side effects.
func Validate(req CreateJobRequest) (*ValidatedJob, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}
	if len(req.Files) > MaxFilesPerJob {
		return nil, ErrTooManyFiles
	}

	priority := req.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	if priority < MinPriority || priority > MaxPriority {
		return nil, ErrInvalidPriority
	}

	format := req.MergeFormat
	if req.MergeOutput && format != MergeFormatNone {
		switch format {
		case MergeFormatTxt, MergeFormatMd, MergeFormatDocx:
		default:
			return nil, ErrInvalidMergeFormat
		}
	}

	files := make([]ValidatedFile, 0, len(req.Files))
	total := 0
	for _, file := range req.Files {
		fileName := strings.TrimSpace(file.Name)
		if fileName == "" {
			return nil, ErrInvalidFileName
		}
		if !strings.HasSuffix(strings.ToLower(fileName), ".pdf") {
			return nil, ErrInvalidFileType
		}
		if file.Size > MaxFileSizeBytes {
			return nil, ErrFileTooLarge
		}
		pages := EstimatePages(file.Size)
		files = append(files, ValidatedFile{
			Name:           fileName,
			SizeBytes:      file.Size,
			EstimatedPages: pages,
		})
		total += pages
	}

	return &ValidatedJob{
		Name:                name,
		Description:         strings.TrimSpace(req.Description),
		Files:               files,
		Priority:            priority,
		MergeOutput:         req.MergeOutput,
		MergeFormat:         format,
		TotalEstimatedPages: total,
	}, nil
}

// EstimatePages applies the coarse heuristic: one page per started
// 50 KiB, never less than one page.
func EstimatePages(sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 1
	}
	pages := (sizeBytes + EstimateBytesPerPage - 1) / EstimateBytesPerPage
	if pages < 1 {
		pages = 1
	}
	return int(pages)
}
