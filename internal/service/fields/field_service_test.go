package fields

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ardiwinata/futsal-booking/internal/domain"
)

type MockFieldRepository struct {
	mock.Mock
}

func (m *MockFieldRepository) List(ctx context.Context) ([]domain.Field, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldRepository) GetByID(ctx context.Context, id int64) (*domain.Field, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Field), args.Error(1)
}

type MockFieldCache struct {
	mock.Mock
}

func (m *MockFieldCache) GetFields(ctx context.Context) ([]domain.Field, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldCache) SetFields(ctx context.Context, fields []domain.Field) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

var catalog = []domain.Field{
	{ID: 1, Name: "Lapangan A", Surface: "vinyl", HourlyRate: 150000, Active: true},
	{ID: 2, Name: "Lapangan B", Surface: "sintetis", HourlyRate: 175000, Active: true},
}

func TestList_CacheHit(t *testing.T) {
	repo := &MockFieldRepository{}
	cache := &MockFieldCache{}
	service := NewFieldService(repo, cache, time.Minute)
	ctx := context.Background()

	cache.On("GetFields", ctx).Return(catalog, nil).Once()

	fields, err := service.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, catalog, fields)
	repo.AssertNotCalled(t, "List")
	cache.AssertExpectations(t)
}

func TestList_CacheMissFillsCache(t *testing.T) {
	repo := &MockFieldRepository{}
	cache := &MockFieldCache{}
	service := NewFieldService(repo, cache, time.Minute)
	ctx := context.Background()

	cache.On("GetFields", ctx).Return(nil, errors.New("cache miss")).Once()
	repo.On("List", ctx).Return(catalog, nil).Once()
	cache.On("SetFields", ctx, catalog).Return(nil).Once()

	fields, err := service.List(ctx)

	require.NoError(t, err)
	assert.Equal(t, catalog, fields)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestList_NoCache(t *testing.T) {
	repo := &MockFieldRepository{}
	service := NewFieldService(repo, nil, time.Minute)
	ctx := context.Background()

	repo.On("List", ctx).Return(catalog, nil).Once()

	fields, err := service.List(ctx)

	require.NoError(t, err)
	assert.Len(t, fields, 2)
	repo.AssertExpectations(t)
}

func TestGetByID(t *testing.T) {
	repo := &MockFieldRepository{}
	service := NewFieldService(repo, nil, time.Minute)
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(1)).Return(&catalog[0], nil).Once()

	field, err := service.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Lapangan A", field.Name)

	repo.On("GetByID", ctx, int64(99)).Return(nil, domain.NotFound("field 99 not found")).Once()
	_, err = service.GetByID(ctx, 99)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
