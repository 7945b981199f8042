package core

import "errors"

// Validation errors
var (
	ErrEmptySourcePath  = errors.New("resumeflow: source path is required")
	ErrServerNotAllowed = errors.New("resumeflow: target server not in allow-list")
	ErrPathTraversal    = errors.New("resumeflow: path contains traversal sequence")
	ErrPathOutsideBase  = errors.New("resumeflow: path resolves outside base directory")
	ErrUnsafeParam      = errors.New("resumeflow: invalid characters in parameter")
	ErrRateLimited      = errors.New("resumeflow: per-process rate limit exceeded")
	ErrDecisionMismatch = errors.New("resumeflow: decision does not reference this record")
	ErrRecordNotFound   = errors.New("resumeflow: record not found")
	ErrNotPendingReview = errors.New("resumeflow: record is not awaiting review")
)
