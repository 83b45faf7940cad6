package mocks

import (
	"context"

	"docudeep/internal/model"
	"docudeep/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockCaseStorage struct {
	mock.Mock
}

func (m *MockCaseStorage) CreateCase(ctx context.Context, payloads []model.DocumentPayload) (*model.CaseRecord, error) {
	args := m.Called(ctx, payloads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CaseRecord), args.Error(1)
}

func (m *MockCaseStorage) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockCaseViewer struct {
	mock.Mock
}

func (m *MockCaseViewer) ListCases(ctx context.Context) ([]model.CaseRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CaseRecord), args.Error(1)
}

func (m *MockCaseViewer) GetCase(ctx context.Context, caseID string) (*model.CaseRecord, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CaseRecord), args.Error(1)
}

func (m *MockCaseViewer) GetDocument(ctx context.Context, caseID, documentID string) (*service.DocumentContent, error) {
	args := m.Called(ctx, caseID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentContent), args.Error(1)
}
