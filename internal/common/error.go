package common

import "fmt"

var (
	ErrFileNotFoundError      = fmt.Errorf("file not found")
	ErrSessionNotFoundError   = fmt.Errorf("session not found")
	ErrSweepHasAlreadyStarted = fmt.Errorf("sweep process has already started")

	ErrEmptyURL      = fmt.Errorf("url is empty")
	ErrInvalidURL    = fmt.Errorf("invalid url")
	ErrFetchStatus   = fmt.Errorf("unexpected http status")
	ErrFetchTooLarge = fmt.Errorf("response body is too large")

	ErrExtract            = fmt.Errorf("cannot extract archive")
	ErrUnsafePath         = fmt.Errorf("path escapes target directory")
	ErrUnsupportedArchive = fmt.Errorf("unsupported archive format")

	ErrNothingToBundle = fmt.Errorf("no files to bundle")
)
