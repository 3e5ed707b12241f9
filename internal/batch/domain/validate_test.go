package domain

import (
	"errors"
	"fmt"
	"testing"
)

func validRequest() CreateJobRequest {
	return CreateJobRequest{
		Name: "quarterly-reports",
		Files: []FileInput{
			{Name: "q1.pdf", Size: 120_000},
			{Name: "q2.pdf", Size: 80_000},
		},
		Priority: 3,
	}
}

func TestValidateHappyPath(t *testing.T) {
	job, err := Validate(validRequest())
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	// 120000/51200 -> 3 pages, 80000/51200 -> 2 pages.
	if job.Files[0].EstimatedPages != 3 {
		t.Fatalf("expected 3 pages for first file, got %d", job.Files[0].EstimatedPages)
	}
	if job.Files[1].EstimatedPages != 2 {
		t.Fatalf("expected 2 pages for second file, got %d", job.Files[1].EstimatedPages)
	}
	if job.TotalEstimatedPages != 5 {
		t.Fatalf("expected 5 total pages, got %d", job.TotalEstimatedPages)
	}
	if job.Priority != 3 {
		t.Fatalf("expected priority 3, got %d", job.Priority)
	}
}

func TestValidateDefaultsPriority(t *testing.T) {
	req := validRequest()
	req.Priority = 0
	job, err := Validate(req)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if job.Priority != DefaultPriority {
		t.Fatalf("expected default priority %d, got %d", DefaultPriority, job.Priority)
	}
}

func TestValidateUppercaseExtensionAndTinyFile(t *testing.T) {
	req := validRequest()
	req.Files = []FileInput{{Name: "report.PDF", Size: 1}}
	job, err := Validate(req)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if job.Files[0].EstimatedPages != 1 {
		t.Fatalf("expected estimate clamped to 1 page, got %d", job.Files[0].EstimatedPages)
	}
}

func TestValidateRules(t *testing.T) {
	tooMany := make([]FileInput, MaxFilesPerJob+1)
	for i := range tooMany {
		tooMany[i] = FileInput{Name: fmt.Sprintf("f%d.pdf", i), Size: 1}
	}

	cases := []struct {
		name    string
		mutate  func(*CreateJobRequest)
		wantErr error
	}{
		{"empty name", func(r *CreateJobRequest) { r.Name = "  " }, ErrInvalidName},
		{"no files", func(r *CreateJobRequest) { r.Files = nil }, ErrNoFiles},
		{"101 files", func(r *CreateJobRequest) { r.Files = tooMany }, ErrTooManyFiles},
		{"priority too low", func(r *CreateJobRequest) { r.Priority = -1 }, ErrInvalidPriority},
		{"priority too high", func(r *CreateJobRequest) { r.Priority = 11 }, ErrInvalidPriority},
		{"bad merge format", func(r *CreateJobRequest) {
			r.MergeOutput = true
			r.MergeFormat = "pdf"
		}, ErrInvalidMergeFormat},
		{"merge format ignored without merge", func(r *CreateJobRequest) {
			r.MergeOutput = false
			r.MergeFormat = "pdf"
		}, nil},
		{"empty file name", func(r *CreateJobRequest) { r.Files[0].Name = "" }, ErrInvalidFileName},
		{"non-pdf file", func(r *CreateJobRequest) { r.Files[0].Name = "scan.tiff" }, ErrInvalidFileType},
		{"oversized file", func(r *CreateJobRequest) { r.Files[0].Size = MaxFileSizeBytes + 1 }, ErrFileTooLarge},
		{"file at exact limit", func(r *CreateJobRequest) { r.Files[0].Size = MaxFileSizeBytes }, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			_, err := Validate(req)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateFirstFailureWins(t *testing.T) {
	req := validRequest()
	req.Name = ""
	req.Priority = 99
	_, err := Validate(req)
	if !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected name failure to win, got %v", err)
	}
}

func TestEstimatePages(t *testing.T) {
	cases := []struct {
		size int64
		want int
	}{
		{0, 1},
		{1, 1},
		{EstimateBytesPerPage, 1},
		{EstimateBytesPerPage + 1, 2},
		{10 * EstimateBytesPerPage, 10},
	}
	for _, tc := range cases {
		if got := EstimatePages(tc.size); got != tc.want {
			t.Fatalf("size=%d: expected %d pages, got %d", tc.size, tc.want, got)
		}
	}
}
