package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docudeep/internal/logger"
	"docudeep/internal/metrics"
	"docudeep/internal/model"
	"docudeep/internal/repository"
	"docudeep/internal/storage"
	"docudeep/internal/validation"
)

var tracer = otel.Tracer("docudeep/internal/service")

// createdAtLayout has a fixed-width fraction so manifests sort lexically in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000Z07:00"

// CaseStorage defines the write-side use cases.
type CaseStorage interface {
	// CreateCase validates every payload, then persists the documents and the manifest.
	// Nothing is left on storage when it returns an error.
	CreateCase(ctx context.Context, payloads []model.DocumentPayload) (*model.CaseRecord, error)

	// Reset removes every case. It keeps going after individual failures and returns them joined;
	// a failure leaves whatever could not be removed in place.
	Reset(ctx context.Context) error
}

// caseStorage is a concrete implementation of CaseStorage.
// Concurrent CreateCase calls never share keys; Reset is not synchronized with anything.
type caseStorage struct {
	store   storage.Storage
	catalog repository.CaseRepository
	metrics *metrics.CaseMetrics
	now     func() time.Time
	newID   func() string
}

// NewCaseStorage constructs a CaseStorage. catalog and m may be nil.
func NewCaseStorage(store storage.Storage, catalog repository.CaseRepository, m *metrics.CaseMetrics) CaseStorage {
	return &caseStorage{
		store:   store,
		catalog: catalog,
		metrics: m,
		now:     time.Now,
		newID:   newID,
	}
}

// newID returns 32 lowercase hex characters from a random UUID.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *caseStorage) CreateCase(ctx context.Context, payloads []model.DocumentPayload) (*model.CaseRecord, error) {
	ctx, span := tracer.Start(ctx, "CaseStorage.CreateCase",
		trace.WithAttributes(attribute.Int("docudeep.documents.count", len(payloads))))
	defer span.End()

	rec, err := s.createCase(ctx, payloads)
	if err != nil {
		if ve, ok := validation.AsError(err); ok {
			s.metrics.ValidationFailed(ve.Code)
			span.SetAttributes(attribute.String("docudeep.validation.code", string(ve.Code)))
			logger.FromContext(ctx).Info("case rejected", "code", ve.Code, "reason", ve.Message)
		} else {
			logger.FromContext(ctx).Error("case creation failed", "error", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("docudeep.case_id", rec.CaseID))
	s.metrics.CaseCreated(rec)
	logger.FromContext(ctx).Info("case created", "case_id", rec.CaseID, "documents", len(rec.Documents))
	return rec, nil
}

func (s *caseStorage) createCase(ctx context.Context, payloads []model.DocumentPayload) (*model.CaseRecord, error) {
	if len(payloads) == 0 {
		return nil, validation.Errorf(validation.CodeNoDocuments, "no documents provided")
	}
	if len(payloads) > model.MaxDocumentsPerCase {
		return nil, validation.Errorf(validation.CodeTooManyFiles, "maximum number of files exceeded (%d)", model.MaxDocumentsPerCase)
	}
	for _, p := range payloads {
		if err := validation.Verify(p); err != nil {
			return nil, err
		}
	}

	rec := &model.CaseRecord{
		CaseID:    s.newID(),
		CreatedAt: s.now().UTC().Format(createdAtLayout),
		Documents: make([]model.StoredDocument, 0, len(payloads)),
	}
	for _, p := range payloads {
		rec.Documents = append(rec.Documents, model.StoredDocument{
			DocumentID: s.newID(),
			Name:       p.Name,
			Type:       p.DeclaredType,
			Size:       p.Size(),
			Status:     model.StatusStored,
		})
	}

	if err := s.writeCase(ctx, rec, payloads); err != nil {
		return nil, s.discard(ctx, rec.CaseID, err)
	}

	if s.catalog != nil {
		if err := s.catalog.Create(ctx, rec); err != nil {
			return nil, s.discard(ctx, rec.CaseID, fmt.Errorf("catalog case: %w", err))
		}
	}
	return rec, nil
}

// writeCase stores document files first and the manifest last, so a visible manifest
// always points at files that exist.
func (s *caseStorage) writeCase(ctx context.Context, rec *model.CaseRecord, payloads []model.DocumentPayload) error {
	for i, doc := range rec.Documents {
		raw := payloads[i].Raw
		key := storage.DocumentKey(rec.CaseID, doc.DocumentID, doc.Name)
		if _, err := s.store.Put(ctx, key, bytes.NewReader(raw), storage.PutObjectOptions{
			Size:        int64(len(raw)),
			ContentType: MimeTypeForFilename(key),
		}); err != nil {
			return fmt.Errorf("store document %s: %w", doc.DocumentID, err)
		}
	}

	manifest, err := encodeManifest(rec)
	if err != nil {
		return err
	}
	if _, err := s.store.Put(ctx, storage.MetadataKey(rec.CaseID), bytes.NewReader(manifest), storage.PutObjectOptions{
		Size:        int64(len(manifest)),
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("store manifest: %w", err)
	}
	return nil
}

// discard removes a partially written case and returns cause with any cleanup failure attached.
func (s *caseStorage) discard(ctx context.Context, caseID string, cause error) error {
	if err := s.store.RemoveAll(ctx, storage.CasePrefix(caseID)); err != nil {
		return fmt.Errorf("%w; cleanup of case %s failed: %v", cause, caseID, err)
	}
	return cause
}

// encodeManifest renders the manifest with two-space indentation and unescaped non-ASCII names.
func encodeManifest(rec *model.CaseRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *caseStorage) Reset(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "CaseStorage.Reset")
	defer span.End()

	var errs []error
	if err := s.store.RemoveAll(ctx, storage.CasesPrefix); err != nil {
		errs = append(errs, fmt.Errorf("remove cases: %w", err))
	}
	if s.catalog != nil {
		if err := s.catalog.DeleteAll(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear catalog: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.FromContext(ctx).Error("storage reset incomplete", "error", err)
		return err
	}
	logger.FromContext(ctx).Warn("storage reset")
	return nil
}
