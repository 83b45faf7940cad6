package mocks

import (
	"context"

	"docudeep/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) Create(ctx context.Context, rec *model.CaseRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockCaseRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
