// Package printererr defines the error categories surfaced to callers of a
// print job. Every failure reduces to one readable string; platform hints
// may be appended by the caller.
package printererr

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceNotFound means no matching printer is attached or selected.
	ErrDeviceNotFound = errors.New("no printer found")

	// ErrDeviceBusy means the OS or a competing driver holds the USB interface.
	ErrDeviceBusy = errors.New("printer interface is held by another process")

	// Printer-reported status conditions.
	ErrOffline   = errors.New("printer offline")
	ErrCoverOpen = errors.New("printer cover open")
	ErrPaperOut  = errors.New("printer out of paper")

	// ErrTransport is a write/read failure mid-job.
	ErrTransport = errors.New("printer transport failure")

	// Image pipeline failures. Non-fatal to a job's text content.
	ErrImageDecode = errors.New("image decode failed")
	ErrImageEncode = errors.New("image encode failed")
)

// Wrap attaches a category sentinel to an underlying error.
func Wrap(category error, err error) error {
	if err == nil {
		return category
	}
	return fmt.Errorf("%w: %v", category, err)
}

// Wrapf attaches a category sentinel to a formatted message.
func Wrapf(category error, format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{category}, args...)...)
}

// Describe reduces an error to the single human-readable string reported
// upward per job.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
