package loan

import (
	"context"
	"errors"
	"strings"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/pkg/id"

	"go.uber.org/zap"
)

var ErrMissingFields = errors.New("customer, loan product, agent and branch are required")

type Usecase struct {
	repo      loan.Repository
	customers customer.Repository
	users     user.Repository
	branches  branch.Repository
	pub       change.Publisher
	log       *zap.Logger
}

func NewUsecase(r loan.Repository, customers customer.Repository, users user.Repository, branches branch.Repository, pub change.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, customers: customers, users: users, branches: branches, pub: pub, log: log}
}

// Create files a pending application. Every referenced row must exist and
// be active, and the customer and agent must belong to the branch.
func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if in.CustomerID == "" || in.LoanProductID == "" || in.AgentID == "" || in.BranchID == "" {
		return nil, ErrMissingFields
	}
	if in.Actor != nil && !in.Actor.Covers(in.BranchID, in.AgentID) {
		return nil, user.ErrForbidden
	}
	if err := u.checkReferences(ctx, in); err != nil {
		u.log.Warn("create loan application", zap.String("customer_id", in.CustomerID), zap.Error(err))
		return nil, err
	}

	var purpose *string
	if in.Purpose != nil {
		if p := strings.TrimSpace(*in.Purpose); p != "" {
			purpose = &p
		}
	}
	a := &loan.Application{
		ID:             id.NewID32(),
		CustomerID:     in.CustomerID,
		LoanProductID:  in.LoanProductID,
		AgentID:        in.AgentID,
		BranchID:       in.BranchID,
		Purpose:        purpose,
		Status:         loan.StatusPending,
		ScheduleStatus: loan.ScheduleNone,
	}
	if err := u.repo.Create(ctx, a); err != nil {
		u.log.Error("insert loan application", zap.Error(err))
		return nil, err
	}
	u.pub.Publish(ctx, change.Change{Table: change.TableLoanApplications, Event: change.Insert, RecordID: a.ID, BranchID: a.BranchID})
	return toDTO(a), nil
}

// inactive collapses missing rows into ErrInactiveReference and passes
// other failures through.
func inactive(err error, missing error) error {
	if errors.Is(err, missing) {
		return loan.ErrInactiveReference
	}
	return err
}

func (u *Usecase) checkReferences(ctx context.Context, in CreateLoanInput) error {
	if _, err := u.branches.GetByID(ctx, in.BranchID); err != nil {
		return inactive(err, branch.ErrNotFound)
	}
	c, err := u.customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return inactive(err, customer.ErrNotFound)
	}
	if !c.IsActive || c.BranchID != in.BranchID {
		return loan.ErrInactiveReference
	}
	p, err := u.repo.GetProduct(ctx, in.LoanProductID)
	if err != nil {
		return inactive(err, loan.ErrProductNotFound)
	}
	if !p.IsActive {
		return loan.ErrInactiveReference
	}
	ag, err := u.users.GetByID(ctx, in.AgentID)
	if err != nil {
		return inactive(err, user.ErrNotFound)
	}
	if !ag.IsActive || ag.Role != user.RoleAgent || !ag.InBranch(in.BranchID) {
		return loan.ErrInactiveReference
	}
	return nil
}

// Get returns the application with its relations expanded.
func (u *Usecase) Get(ctx context.Context, actor *user.User, loanID string) (*loan.Application, error) {
	a, err := u.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if actor != nil && !actor.Covers(a.BranchID, a.AgentID) {
		// out-of-scope rows are reported as missing
		return nil, loan.ErrNotFound
	}
	return a, nil
}

// List narrows the filter to the actor's scope and returns newest first.
func (u *Usecase) List(ctx context.Context, actor *user.User, f loan.Filter) ([]loan.Application, error) {
	if actor != nil {
		f.BranchID, f.AgentID = actor.Scope(f.BranchID, f.AgentID)
	}
	out, err := u.repo.List(ctx, f)
	if err != nil {
		u.log.Error("list loan applications", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Products(ctx context.Context) ([]loan.Product, error) {
	return u.repo.ListProducts(ctx)
}
