package catalog

import (
	"context"
)

type Service struct {
	repo Reader
}

func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]Record, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) GetByKey(ctx context.Context, key string) (Record, error) {
	return s.repo.GetByKey(ctx, key)
}
