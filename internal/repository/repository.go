// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"docudeep/internal/model"
)

// CaseRepository is a queryable catalog of created cases.
// The storage layout stays the source of truth; the catalog mirrors it for reporting.
type CaseRepository interface {
	// Create records a case and all its documents, in submission order, atomically.
	Create(ctx context.Context, rec *model.CaseRecord) error

	// DeleteAll removes every cataloged case and document.
	DeleteAll(ctx context.Context) error
}
