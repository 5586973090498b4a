package domain

import "errors"

// Pipeline errors. Format and extraction errors fail a run before any
// provider dispatch happens; OCR unavailability only degrades.
var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrCorruptInput         = errors.New("corrupt input")
	ErrNoExtractableContent = errors.New("no extractable content")
	ErrOCRUnavailable       = errors.New("ocr engine unavailable")
	ErrAnalysisInProgress   = errors.New("analysis already in progress for this document")
	ErrCancelled            = errors.New("analysis cancelled")
	ErrFileTooLarge         = errors.New("file exceeds maximum size")
)
