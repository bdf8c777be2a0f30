package service

import (
	"context"
	"errors"
	"fmt"

	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/store"
)

const (
	DefaultDispatchLimit = 20
	MaxDispatchLimit     = 100
)

var ErrDispatchNotFound = errors.New("dispatch not found")

type DispatchService interface {
	Get(ctx context.Context, id int64) (*model.Dispatch, error)
	// List returns the most recent dispatches. limit <= 0 means the default.
	List(ctx context.Context, limit int) ([]model.Dispatch, error)
}

type dispatchService struct {
	dispatches store.DispatchStore
}

func NewDispatchService(dispatches store.DispatchStore) DispatchService {
	return &dispatchService{dispatches: dispatches}
}

func (s *dispatchService) Get(ctx context.Context, id int64) (*model.Dispatch, error) {
	d, err := s.dispatches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDispatchNotFound
		}
		return nil, fmt.Errorf("fetching dispatch: %w", err)
	}
	return d, nil
}

func (s *dispatchService) List(ctx context.Context, limit int) ([]model.Dispatch, error) {
	switch {
	case limit <= 0:
		limit = DefaultDispatchLimit
	case limit > MaxDispatchLimit:
		limit = MaxDispatchLimit
	}

	list, err := s.dispatches.List(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("listing dispatches: %w", err)
	}
	return list, nil
}
