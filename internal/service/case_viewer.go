package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docudeep/internal/logger"
	"docudeep/internal/model"
	"docudeep/internal/storage"
)

// DocumentContent is a document fully loaded into memory, ready to be served.
type DocumentContent struct {
	Document model.StoredDocument
	Data     []byte
	MimeType string
}

// CaseViewer defines the read-side use cases.
type CaseViewer interface {
	// ListCases returns every manifest found under the cases prefix, newest first.
	ListCases(ctx context.Context) ([]model.CaseRecord, error)

	// GetCase returns the manifest of one case.
	GetCase(ctx context.Context, caseID string) (*model.CaseRecord, error)

	// GetDocument returns a document entry with its bytes and extension-based content type.
	GetDocument(ctx context.Context, caseID, documentID string) (*DocumentContent, error)
}

type caseViewer struct {
	store storage.Storage
}

// NewCaseViewer constructs a read-only CaseViewer over store.
func NewCaseViewer(store storage.Storage) CaseViewer {
	return &caseViewer{store: store}
}

func (v *caseViewer) ListCases(ctx context.Context) ([]model.CaseRecord, error) {
	ctx, span := tracer.Start(ctx, "CaseViewer.ListCases")
	defer span.End()

	objs, err := v.store.List(ctx, storage.CasesPrefix)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list cases: %w", err))
	}

	cases := make([]model.CaseRecord, 0)
	for _, obj := range objs {
		if !storage.IsMetadataKey(obj.Key) {
			continue
		}
		rec, err := v.readManifest(ctx, obj.Key)
		if err != nil {
			// A reset may remove a case between listing and reading it.
			if errors.Is(err, storage.ErrObjectNotFound) {
				logger.FromContext(ctx).Debug("manifest vanished during listing", "key", obj.Key)
				continue
			}
			return nil, fail(span, err)
		}
		cases = append(cases, *rec)
	}

	sortNewestFirst(cases)
	span.SetAttributes(attribute.Int("docudeep.cases.count", len(cases)))
	return cases, nil
}

func (v *caseViewer) GetCase(ctx context.Context, caseID string) (*model.CaseRecord, error) {
	ctx, span := tracer.Start(ctx, "CaseViewer.GetCase",
		trace.WithAttributes(attribute.String("docudeep.case_id", caseID)))
	defer span.End()

	rec, err := v.loadCase(ctx, caseID)
	if err != nil {
		return nil, fail(span, err)
	}
	return rec, nil
}

func (v *caseViewer) GetDocument(ctx context.Context, caseID, documentID string) (*DocumentContent, error) {
	ctx, span := tracer.Start(ctx, "CaseViewer.GetDocument", trace.WithAttributes(
		attribute.String("docudeep.case_id", caseID),
		attribute.String("docudeep.document_id", documentID),
	))
	defer span.End()

	rec, err := v.loadCase(ctx, caseID)
	if err != nil {
		return nil, fail(span, err)
	}
	doc, ok := rec.Document(documentID)
	if !ok {
		return nil, fail(span, &NotFoundError{Kind: KindDocument, CaseID: caseID, DocumentID: documentID})
	}

	key, err := v.locateDocument(ctx, caseID, doc)
	if err != nil {
		return nil, fail(span, err)
	}
	data, _, err := storage.ReadAll(ctx, v.store, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			err = &NotFoundError{Kind: KindDocumentFile, CaseID: caseID, DocumentID: documentID}
		}
		return nil, fail(span, err)
	}

	return &DocumentContent{
		Document: doc,
		Data:     data,
		MimeType: MimeTypeForFilename(path.Base(key)),
	}, nil
}

// loadCase reads the manifest of caseID. An id that cannot name a key is reported as not found.
func (v *caseViewer) loadCase(ctx context.Context, caseID string) (*model.CaseRecord, error) {
	rec, err := v.readManifest(ctx, storage.MetadataKey(caseID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, &NotFoundError{Kind: KindCase, CaseID: caseID}
		}
		return nil, err
	}
	return rec, nil
}

func (v *caseViewer) readManifest(ctx context.Context, key string) (*model.CaseRecord, error) {
	data, _, err := storage.ReadAll(ctx, v.store, key)
	if err != nil {
		return nil, err
	}
	var rec model.CaseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", key, err)
	}
	if rec.Documents == nil {
		rec.Documents = []model.StoredDocument{}
	}
	return &rec, nil
}

// locateDocument derives the file key from the manifest entry. Files written under a different
// naming are found by scanning for the "<documentId>_" prefix; the first match in key order wins.
func (v *caseViewer) locateDocument(ctx context.Context, caseID string, doc model.StoredDocument) (string, error) {
	exact := storage.DocumentKey(caseID, doc.DocumentID, doc.Name)
	_, err := v.store.Stat(ctx, exact)
	if err == nil {
		return exact, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return "", err
	}

	candidates, err := v.store.List(ctx, storage.DocumentsPrefix(caseID)+doc.DocumentID+"_")
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", &NotFoundError{Kind: KindDocumentFile, CaseID: caseID, DocumentID: doc.DocumentID}
	}
	return candidates[0].Key, nil
}

// sortNewestFirst orders by created_at descending. Timestamps that do not parse
// are compared as text, which matches chronological order for fixed-width UTC values.
func sortNewestFirst(cases []model.CaseRecord) {
	sort.SliceStable(cases, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339Nano, cases[i].CreatedAt)
		tj, errj := time.Parse(time.RFC3339Nano, cases[j].CreatedAt)
		if erri == nil && errj == nil {
			return ti.After(tj)
		}
		return cases[i].CreatedAt > cases[j].CreatedAt
	})
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
