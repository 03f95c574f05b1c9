package utils

import "fmt"

// BoxSizeOverflowError represents a box whose resolved size does not fit the 32-bit size field.
type BoxSizeOverflowError struct {
	Offset int64
	Size   int64
}

// Error returns the error message for BoxSizeOverflowError.
func (e *BoxSizeOverflowError) Error() string {
	return fmt.Sprintf("box at offset %d is %d bytes long, which overflows the 32-bit size field", e.Offset, e.Size)
}

// AlreadyWrittenError represents an attempt to write a single-use writer tree twice.
type AlreadyWrittenError struct {
}

// Error returns the error message for AlreadyWrittenError.
func (AlreadyWrittenError) Error() string {
	return "writer tree was written already"
}

// TrackIndexError represents a track index that does not address any track extends entry.
type TrackIndexError struct {
	Role  string
	Index int
	Count int
}

// Error returns the error message for TrackIndexError.
func (e *TrackIndexError) Error() string {
	return fmt.Sprintf("%s track index %d is out of range, have %d track extends", e.Role, e.Index, e.Count)
}

// SinkClosedError represents a chunk handed to a sink that no longer accepts data.
type SinkClosedError struct {
}

// Error method implementation for SinkClosedError.
func (SinkClosedError) Error() string {
	return "sink is closed"
}
