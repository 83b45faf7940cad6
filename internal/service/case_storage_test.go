package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docudeep/internal/metrics"
	"docudeep/internal/model"
	repoMocks "docudeep/internal/repository/mocks"
	"docudeep/internal/storage"
	storeMocks "docudeep/internal/storage/mocks"
	"docudeep/internal/validation"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

func newTestStore(t *testing.T) (storage.Storage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := storage.NewLocal(root)
	require.NoError(t, err)
	return s, root
}

// sequentialIDs returns an id generator yielding prefix-0, prefix-1, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		id := fmt.Sprintf("%s%d", prefix, n)
		n++
		return id
	}
}

func newTestCaseStorage(store storage.Storage, repo *repoMocks.MockCaseRepository) *caseStorage {
	var svc CaseStorage
	if repo != nil {
		svc = NewCaseStorage(store, repo, nil)
	} else {
		svc = NewCaseStorage(store, nil, nil)
	}
	cs := svc.(*caseStorage)
	cs.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	cs.newID = sequentialIDs("id")
	return cs
}

func caseDirs(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, "cases"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCaseStorage_CreateCase(t *testing.T) {
	ctx := context.Background()
	store, root := newTestStore(t)
	svc := newTestCaseStorage(store, nil)

	rec, err := svc.CreateCase(ctx, []model.DocumentPayload{
		{Name: "avis 2023.pdf", DeclaredType: model.TypeTaxNotice, Raw: pdfBytes},
		{Name: "../fiche.png", DeclaredType: model.TypePayslip, Raw: pngBytes},
	})
	require.NoError(t, err)

	assert.Equal(t, "id0", rec.CaseID)
	assert.Equal(t, "2024-03-01T12:00:00.000000Z", rec.CreatedAt)
	assert.Equal(t, []model.StoredDocument{
		{DocumentID: "id1", Name: "avis 2023.pdf", Type: model.TypeTaxNotice, Size: int64(len(pdfBytes)), Status: model.StatusStored},
		{DocumentID: "id2", Name: "../fiche.png", Type: model.TypePayslip, Size: int64(len(pngBytes)), Status: model.StatusStored},
	}, rec.Documents)

	docsDir := filepath.Join(root, "cases", "id0", "documents")
	got, err := os.ReadFile(filepath.Join(docsDir, "id1_avis_2023.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, got)
	got, err = os.ReadFile(filepath.Join(docsDir, "id2_..fiche.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	raw, err := os.ReadFile(filepath.Join(root, "cases", "id0", "metadata.json"))
	require.NoError(t, err)
	var manifest model.CaseRecord
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, *rec, manifest)
	assert.Contains(t, string(raw), "\n  \"case_id\": \"id0\"")
}

func TestCaseStorage_CreateCase_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	store, root := newTestStore(t)
	svc := NewCaseStorage(store, nil, nil)

	a, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})
	require.NoError(t, err)
	b, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})
	require.NoError(t, err)

	assert.NotEqual(t, a.CaseID, b.CaseID)
	assert.Len(t, a.CaseID, 32)
	assert.NotEqual(t, a.Documents[0].DocumentID, b.Documents[0].DocumentID)
	assert.ElementsMatch(t, []string{a.CaseID, b.CaseID}, caseDirs(t, root))

	_, err = time.Parse(time.RFC3339Nano, a.CreatedAt)
	assert.NoError(t, err)
}

func TestCaseStorage_CreateCase_Rejected(t *testing.T) {
	valid := model.DocumentPayload{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}
	badType := model.DocumentPayload{Name: "a.pdf", DeclaredType: "invoice", Raw: pdfBytes}

	six := make([]model.DocumentPayload, 6)
	for i := range six {
		six[i] = badType
	}

	tests := []struct {
		name     string
		payloads []model.DocumentPayload
		wantCode validation.Code
	}{
		{"no documents", nil, validation.CodeNoDocuments},
		{"too many files checked before validation", six, validation.CodeTooManyFiles},
		{"invalid type", []model.DocumentPayload{badType}, validation.CodeInvalidType},
		{"one bad document aborts the batch", []model.DocumentPayload{valid, {Name: "b.pdf", DeclaredType: model.TypeCharges, Raw: []byte("nope")}}, validation.CodeNotAValidPDF},
		{"unsupported format", []model.DocumentPayload{valid, {Name: "b.docx", DeclaredType: model.TypeCharges, Raw: []byte("PK")}}, validation.CodeUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, root := newTestStore(t)
			reg := prometheus.NewRegistry()
			m, err := metrics.NewCaseMetrics(reg)
			require.NoError(t, err)
			svc := NewCaseStorage(store, nil, m)

			rec, err := svc.CreateCase(context.Background(), tt.payloads)

			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, validation.HasCode(err, tt.wantCode), "got %v", err)
			assert.Empty(t, caseDirs(t, root))

			count, err := testutil.GatherAndCount(reg, "docudeep_validation_failures_total")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestCaseStorage_CreateCase_FiveFilesAccepted(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewCaseStorage(store, nil, nil)

	payloads := make([]model.DocumentPayload, model.MaxDocumentsPerCase)
	for i := range payloads {
		payloads[i] = model.DocumentPayload{Name: fmt.Sprintf("doc%d.pdf", i), DeclaredType: model.TypeCharges, Raw: pdfBytes}
	}

	rec, err := svc.CreateCase(context.Background(), payloads)
	require.NoError(t, err)
	require.Len(t, rec.Documents, 5)
	for i, d := range rec.Documents {
		assert.Equal(t, fmt.Sprintf("doc%d.pdf", i), d.Name)
	}
}

func TestCaseStorage_CreateCase_StoreFailureCleansUp(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	svc := newTestCaseStorage(mStore, nil)

	mStore.On("Put", mock.Anything, "cases/id0/documents/id1_a.pdf", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "cases/id0/documents/id1_a.pdf"}, nil).Once()
	mStore.On("Put", mock.Anything, "cases/id0/metadata.json", mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
		return o.ContentType == "application/json" && o.Size > 0
	})).Return(storage.ObjectInfo{}, errors.New("disk full")).Once()
	mStore.On("RemoveAll", mock.Anything, "cases/id0/").Return(nil).Once()

	rec, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})

	assert.Nil(t, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store manifest: disk full")
	_, isValidation := validation.AsError(err)
	assert.False(t, isValidation)
	mStore.AssertExpectations(t)
}

func TestCaseStorage_CreateCase_CleanupFailureReported(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	svc := newTestCaseStorage(mStore, nil)

	mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("read-only filesystem")).Once()
	mStore.On("RemoveAll", mock.Anything, "cases/id0/").Return(errors.New("permission denied")).Once()

	_, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only filesystem")
	assert.Contains(t, err.Error(), "cleanup of case id0 failed: permission denied")
	mStore.AssertExpectations(t)
}

func TestCaseStorage_CreateCase_Catalog(t *testing.T) {
	ctx := context.Background()

	t.Run("recorded", func(t *testing.T) {
		store, _ := newTestStore(t)
		repo := new(repoMocks.MockCaseRepository)
		svc := newTestCaseStorage(store, repo)

		repo.On("Create", mock.Anything, mock.MatchedBy(func(rec *model.CaseRecord) bool {
			return rec.CaseID == "id0" && len(rec.Documents) == 1
		})).Return(nil).Once()

		_, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("failure removes the case", func(t *testing.T) {
		store, root := newTestStore(t)
		repo := new(repoMocks.MockCaseRepository)
		svc := newTestCaseStorage(store, repo)

		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		rec, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})

		assert.Nil(t, rec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog case: db down")
		assert.Empty(t, caseDirs(t, root))
		repo.AssertExpectations(t)
	})
}

func TestCaseStorage_CreateCase_Metrics(t *testing.T) {
	store, _ := newTestStore(t)
	reg := prometheus.NewRegistry()
	m, err := metrics.NewCaseMetrics(reg)
	require.NoError(t, err)
	svc := NewCaseStorage(store, nil, m)

	_, err = svc.CreateCase(context.Background(), []model.DocumentPayload{
		{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes},
		{Name: "b.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes},
	})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "docudeep_cases_created_total", "docudeep_documents_stored_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCaseStorage_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("removes every case", func(t *testing.T) {
		store, root := newTestStore(t)
		repo := new(repoMocks.MockCaseRepository)
		svc := NewCaseStorage(store, repo, nil)

		repo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
		repo.On("DeleteAll", mock.Anything).Return(nil).Once()

		for i := 0; i < 2; i++ {
			_, err := svc.CreateCase(ctx, []model.DocumentPayload{{Name: "a.pdf", DeclaredType: model.TypeCharges, Raw: pdfBytes}})
			require.NoError(t, err)
		}
		require.Len(t, caseDirs(t, root), 2)

		require.NoError(t, svc.Reset(ctx))
		assert.Empty(t, caseDirs(t, root))

		cases, err := NewCaseViewer(store).ListCases(ctx)
		require.NoError(t, err)
		assert.Empty(t, cases)
		repo.AssertExpectations(t)
	})

	t.Run("empty store", func(t *testing.T) {
		store, _ := newTestStore(t)
		assert.NoError(t, NewCaseStorage(store, nil, nil).Reset(ctx))
	})

	t.Run("collects every failure", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		repo := new(repoMocks.MockCaseRepository)
		svc := NewCaseStorage(mStore, repo, nil)

		mStore.On("RemoveAll", mock.Anything, storage.CasesPrefix).Return(errors.New("busy")).Once()
		repo.On("DeleteAll", mock.Anything).Return(errors.New("db down")).Once()

		err := svc.Reset(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "remove cases: busy")
		assert.Contains(t, err.Error(), "clear catalog: db down")
		mStore.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
}
