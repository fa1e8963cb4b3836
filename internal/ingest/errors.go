package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrInputRejected is matched by every error caused by what the user
	// uploaded rather than by a broken archive.
	ErrInputRejected = errors.New("input rejected")

	ErrUnsupportedFile = fmt.Errorf("%w: please upload a ZIP file that contains a CSV", ErrInputRejected)
	ErrNotAnArchive    = fmt.Errorf("%w: file is not a ZIP archive", ErrInputRejected)
	ErrNoMatchingEntry = fmt.Errorf("%w: no CSV file found inside the ZIP", ErrInputRejected)

	// ErrArchiveCorrupt means the archive opened but an entry could not be decoded.
	ErrArchiveCorrupt = errors.New("failed to read ZIP")
)

// IsInputRejected reports whether err was caused by unusable input.
func IsInputRejected(err error) bool {
	return errors.Is(err, ErrInputRejected)
}

// UserMessage returns the notification text shown for an ingestion failure.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFile):
		return "Please upload a ZIP file that contains a CSV."
	case errors.Is(err, ErrNotAnArchive):
		return "That file is not a valid ZIP archive."
	case errors.Is(err, ErrNoMatchingEntry):
		return "No CSV file found inside the ZIP."
	default:
		return "Failed to read ZIP. The archive may be damaged."
	}
}
