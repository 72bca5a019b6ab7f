package loader

import "errors"

var (
	// ErrEmptyLocation indicates a Location with neither a directory nor files.
	ErrEmptyLocation = errors.New("location has no directory or files")

	// ErrNoDocuments indicates a location that yielded no documents.
	ErrNoDocuments = errors.New("no documents found")

	// ErrNotRegularFile indicates a path that is a directory or special file.
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrDuplicatePath indicates a file list naming the same document twice.
	ErrDuplicatePath = errors.New("duplicate file path")

	// ErrMalformedPDF indicates the PDF parser rejected the file content.
	ErrMalformedPDF = errors.New("malformed pdf")
)
