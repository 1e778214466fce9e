package domain

import "errors"

var (
	ErrInvalidDate         = errors.New("invoice date missing or not a valid calendar date")
	ErrSourceUnavailable   = errors.New("document text could not be read")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrFileUnstable        = errors.New("file size did not settle")
	ErrFileVanished        = errors.New("file disappeared before processing")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrRemoteUnavailable   = errors.New("remote table server not reachable")
	ErrRemoteRequest       = errors.New("remote table request failed")
	ErrSyncInProgress      = errors.New("sync cycle already running")
	ErrSyncDisabled        = errors.New("sync is disabled")
	ErrInvalidRules        = errors.New("invalid extraction rules")
)
