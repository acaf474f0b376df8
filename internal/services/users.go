package services

import (
	"context"

	"github.com/campusnav/apiserver/internal/store"
	"github.com/campusnav/apiserver/types"
)

// UserService is the read side of accounts for the management console.
type UserService struct {
	repo *store.AccountRepository
}

func NewUserService(repo *store.AccountRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns accounts newest first. A zero limit returns every match.
func (s *UserService) List(ctx context.Context, filter store.AccountFilter, limit, offset int) ([]types.Account, error) {
	filter.Email = NormalizeEmail(filter.Email)
	accounts, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, storeError(err)
	}
	return accounts, nil
}

// Get rejects malformed ids with ErrInvalidRequest before touching the store.
func (s *UserService) Get(ctx context.Context, id string) (types.Account, error) {
	if !s.repo.ValidID(id) {
		return types.Account{}, invalidRequest("invalid user id")
	}
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Account{}, storeError(err)
	}
	return account, nil
}
