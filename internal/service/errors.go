package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCaseNotFound matches a NotFoundError for a missing case manifest.
	ErrCaseNotFound = errors.New("case not found")
	// ErrDocumentNotFound matches a NotFoundError for a document missing from the manifest or from disk.
	ErrDocumentNotFound = errors.New("document not found")
)

// NotFoundKind tells which part of a case could not be found.
type NotFoundKind string

const (
	KindCase         NotFoundKind = "case"
	KindDocument     NotFoundKind = "document"
	KindDocumentFile NotFoundKind = "document_file"
)

// NotFoundError reports a lookup that failed because something is absent.
type NotFoundError struct {
	Kind       NotFoundKind
	CaseID     string
	DocumentID string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindDocument:
		return fmt.Sprintf("document %s not found in case %s", e.DocumentID, e.CaseID)
	case KindDocumentFile:
		return fmt.Sprintf("file of document %s missing from case %s", e.DocumentID, e.CaseID)
	default:
		return fmt.Sprintf("case %s not found", e.CaseID)
	}
}

// Is lets errors.Is match the sentinel for each kind. A missing file is also a missing document.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrCaseNotFound:
		return e.Kind == KindCase
	case ErrDocumentNotFound:
		return e.Kind == KindDocument || e.Kind == KindDocumentFile
	}
	return false
}
