package branch

import (
	"context"
	"errors"
	"strings"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/pkg/id"

	"go.uber.org/zap"
)

var ErrMissingFields = errors.New("branch name and code are required")

type CreateInput struct {
	Actor   *user.User
	Name    string
	Code    string
	Address *string
	Phone   *string
}

type Usecase struct {
	repo branch.Repository
	log  *zap.Logger
}

func NewUsecase(repo branch.Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: repo, log: log}
}

// Create adds a branch. Only admins manage reference data; codes are stored
// upper-case.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (*branch.Branch, error) {
	if in.Actor == nil || in.Actor.Role != user.RoleAdmin {
		return nil, user.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if name == "" || code == "" {
		return nil, ErrMissingFields
	}
	b := &branch.Branch{ID: id.NewID32(), Name: name, Code: code, Address: in.Address, Phone: in.Phone}
	if err := u.repo.Create(ctx, b); err != nil {
		u.log.Warn("create branch", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (u *Usecase) List(ctx context.Context) ([]branch.Branch, error) {
	return u.repo.List(ctx)
}

func (u *Usecase) Get(ctx context.Context, branchID string) (*branch.Branch, error) {
	return u.repo.GetByID(ctx, branchID)
}
