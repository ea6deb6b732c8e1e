package customer

import (
	"context"
	"errors"
	"strings"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/uow"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrMissingFields = errors.New("first name, last name, phone and address are required")
	ErrAgentRequired = errors.New("an active agent must own the customer")
)

type Usecase struct {
	repo  customer.Repository
	users user.Repository
	uow   uow.UnitOfWork
	pub   change.Publisher
	log   *zap.Logger
}

func NewUsecase(repo customer.Repository, users user.Repository, tx uow.UnitOfWork, pub change.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{repo: repo, users: users, uow: tx, pub: pub, log: log}
}

// owner resolves the agent who will own a new customer.
func (u *Usecase) owner(ctx context.Context, actor *user.User, agentID string) (*user.User, error) {
	if actor == nil {
		return nil, user.ErrForbidden
	}
	if actor.Role == user.RoleAgent {
		if actor.BranchID == nil {
			return nil, ErrAgentRequired
		}
		return actor, nil
	}
	if agentID == "" {
		return nil, ErrAgentRequired
	}
	ag, err := u.users.GetByID(ctx, agentID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrAgentRequired
	}
	if err != nil {
		return nil, err
	}
	if ag.Role != user.RoleAgent || !ag.IsActive || ag.BranchID == nil {
		return nil, ErrAgentRequired
	}
	if !actor.InBranch(*ag.BranchID) {
		return nil, user.ErrForbidden
	}
	return ag, nil
}

// Register creates the customer and its guarantors in one transaction.
// Guarantor rules are checked before anything is written.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*customer.Customer, error) {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" ||
		strings.TrimSpace(in.Phone) == "" || strings.TrimSpace(in.Address) == "" {
		return nil, ErrMissingFields
	}
	gs := make([]customer.Guarantor, 0, len(in.Guarantors))
	for _, g := range in.Guarantors {
		gs = append(gs, g.toEntity())
	}
	gs, err := customer.NormalizeGuarantors(gs)
	if err != nil {
		return nil, err
	}
	agent, err := u.owner(ctx, in.Actor, in.AgentID)
	if err != nil {
		return nil, err
	}

	c := &customer.Customer{
		ID:                    id.NewID32(),
		FirstName:             strings.TrimSpace(in.FirstName),
		LastName:              strings.TrimSpace(in.LastName),
		Phone:                 strings.TrimSpace(in.Phone),
		Email:                 in.Email,
		DateOfBirth:           in.DateOfBirth,
		Address:               strings.TrimSpace(in.Address),
		Occupation:            in.Occupation,
		BankName:              in.BankName,
		BankAccount:           in.BankAccount,
		EmergencyContactName:  in.EmergencyContactName,
		EmergencyContactPhone: in.EmergencyContactPhone,
		BranchID:              *agent.BranchID,
		AgentID:               agent.ID,
		IsActive:              true,
	}
	if in.MonthlyIncome != nil {
		c.MonthlyIncome = decimal.NewNullDecimal(*in.MonthlyIncome)
	}
	for i := range gs {
		gs[i].ID = id.NewID32()
		gs[i].CustomerID = c.ID
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Customers.Create(ctx, c); err != nil {
			return err
		}
		return r.Customers.CreateGuarantors(ctx, gs)
	})
	if err != nil {
		u.log.Error("register customer", zap.String("agent_id", agent.ID), zap.Error(err))
		return nil, err
	}
	c.Guarantors = gs
	u.pub.Publish(ctx, change.Change{Table: change.TableCustomers, Event: change.Insert, RecordID: c.ID, BranchID: c.BranchID})
	return c, nil
}

// Get hides customers outside the actor's scope.
func (u *Usecase) Get(ctx context.Context, actor *user.User, customerID string) (*customer.Customer, error) {
	c, err := u.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if actor != nil && !actor.Covers(c.BranchID, c.AgentID) {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

func (u *Usecase) List(ctx context.Context, actor *user.User, f customer.Filter) ([]customer.Customer, error) {
	if actor != nil {
		f.BranchID, f.AgentID = actor.Scope(f.BranchID, f.AgentID)
	}
	out, err := u.repo.List(ctx, f)
	if err != nil {
		u.log.Error("list customers", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Update(ctx context.Context, actor *user.User, customerID string, p customer.Patch) (*customer.Customer, error) {
	if _, err := u.Get(ctx, actor, customerID); err != nil {
		return nil, err
	}
	c, err := u.repo.Update(ctx, customerID, p)
	if err != nil {
		u.log.Error("update customer", zap.String("customer_id", customerID), zap.Error(err))
		return nil, err
	}
	u.pub.Publish(ctx, change.Change{Table: change.TableCustomers, Event: change.Update, RecordID: c.ID, BranchID: c.BranchID})
	return c, nil
}

// Deactivate is the soft delete; customers are never removed.
func (u *Usecase) Deactivate(ctx context.Context, actor *user.User, customerID string) error {
	c, err := u.Get(ctx, actor, customerID)
	if err != nil {
		return err
	}
	if err := u.repo.SetActive(ctx, customerID, false); err != nil {
		u.log.Error("deactivate customer", zap.String("customer_id", customerID), zap.Error(err))
		return err
	}
	u.pub.Publish(ctx, change.Change{Table: change.TableCustomers, Event: change.Update, RecordID: c.ID, BranchID: c.BranchID})
	return nil
}

// AddGuarantor attaches a guarantor after registration. Without a type the
// first guarantor becomes primary and any later one secondary.
func (u *Usecase) AddGuarantor(ctx context.Context, actor *user.User, customerID string, in GuarantorInput) (*customer.Guarantor, error) {
	if _, err := u.Get(ctx, actor, customerID); err != nil {
		return nil, err
	}
	g := in.toEntity()
	g.ID = id.NewID32()
	g.CustomerID = customerID
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		// concurrent adds must see each other's rows before CanAdd
		if err := r.Customers.Lock(ctx, customerID); err != nil {
			return err
		}
		existing, err := r.Customers.ListGuarantors(ctx, customerID)
		if err != nil {
			return err
		}
		if g.Type == "" {
			g.Type = customer.GuarantorPrimary
			if len(existing) > 0 {
				g.Type = customer.GuarantorSecondary
			}
		}
		if err := customer.CanAdd(existing, g); err != nil {
			return err
		}
		return r.Customers.CreateGuarantors(ctx, []customer.Guarantor{g})
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}
