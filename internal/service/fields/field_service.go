package fields

import (
	"context"
	"time"

	"github.com/ardiwinata/futsal-booking/internal/domain"
	"github.com/ardiwinata/futsal-booking/internal/repository"
)

type FieldUseCase interface {
	List(ctx context.Context) ([]domain.Field, error)
	GetByID(ctx context.Context, id int64) (*domain.Field, error)
}

type FieldCache interface {
	GetFields(ctx context.Context) ([]domain.Field, error)
	SetFields(ctx context.Context, fields []domain.Field) error
}

// FieldService serves the public field catalog, cache-first.
type FieldService struct {
	repo     repository.FieldRepository
	cache    FieldCache
	cacheTTL time.Duration
}

func NewFieldService(repo repository.FieldRepository, cache FieldCache, cacheTTL time.Duration) *FieldService {
	return &FieldService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *FieldService) List(ctx context.Context) ([]domain.Field, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFields(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	fields, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFields(ctx, fields)
	}
	return fields, nil
}

func (s *FieldService) GetByID(ctx context.Context, id int64) (*domain.Field, error) {
	return s.repo.GetByID(ctx, id)
}

var _ FieldUseCase = (*FieldService)(nil)
