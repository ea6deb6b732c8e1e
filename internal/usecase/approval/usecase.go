package approval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/schedule"
	"microfinance-backoffice/internal/domain/uow"
	"microfinance-backoffice/internal/domain/user"

	"go.uber.org/zap"
)

// RepairGrace is how long a pending schedule is left to the generation that
// set it before RepairSchedule may take over.
const RepairGrace = 5 * time.Minute

// Usecase drives the approver side of the loan lifecycle: approve, reject,
// disburse and schedule repair.
type Usecase struct {
	loans loan.Repository
	uow   uow.UnitOfWork
	gen   schedule.Generator
	pub   change.Publisher
	log   *zap.Logger
	now   func() time.Time
	grace time.Duration
}

func NewUsecase(loans loan.Repository, tx uow.UnitOfWork, gen schedule.Generator, pub change.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{
		loans: loans,
		uow:   tx,
		gen:   gen,
		pub:   pub,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
		grace: RepairGrace,
	}
}

// authorize checks the approver role and branch scope against the locked row.
func authorize(actor *user.User, a *loan.Application) error {
	if actor == nil || !actor.Role.Approver() {
		return user.ErrForbidden
	}
	if !actor.InBranch(a.BranchID) {
		return loan.ErrOutOfScope
	}
	return nil
}

func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*DecisionDTO, error) {
	var (
		dto      *DecisionDTO
		branchID string
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, a *loan.Application) error {
		if err := authorize(in.Actor, a); err != nil {
			return err
		}
		if err := a.Approve(in.Actor.ID, schedule.Date(u.now()), in.Notes); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		dto, branchID = toDTO(a), a.BranchID
		return nil
	})
	if err != nil {
		u.log.Warn("approve loan application", zap.String("loan_id", in.LoanID), zap.Error(err))
		return nil, err
	}
	u.publish(ctx, dto.ID, branchID)
	return dto, nil
}

// Reject refuses a blank reason before touching storage.
func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*DecisionDTO, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, loan.ErrRejectionReasonRequired
	}
	var (
		dto      *DecisionDTO
		branchID string
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, a *loan.Application) error {
		if err := authorize(in.Actor, a); err != nil {
			return err
		}
		if err := a.Reject(in.Actor.ID, schedule.Date(u.now()), reason); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		dto, branchID = toDTO(a), a.BranchID
		return nil
	})
	if err != nil {
		u.log.Warn("reject loan application", zap.String("loan_id", in.LoanID), zap.Error(err))
		return nil, err
	}
	u.publish(ctx, dto.ID, branchID)
	return dto, nil
}

// Disburse runs in two phases. The status change commits first, then the
// schedule is generated exactly once. When generation fails the status is
// reverted by a compensating update; if that also fails the application is
// left disbursed with schedule_status=pending for RepairSchedule.
func (u *Usecase) Disburse(ctx context.Context, in DisburseInput) (*DecisionDTO, error) {
	start := schedule.Date(in.StartDate)
	var (
		req     schedule.Request
		product loan.Product
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, a *loan.Application) error {
		if err := authorize(in.Actor, a); err != nil {
			return err
		}
		p, err := productOf(ctx, r.Loans, a)
		if err != nil {
			return err
		}
		if err := a.Disburse(schedule.Date(in.DisbursementDate), start, schedule.Date(in.EndDate), in.Notes); err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		product = *p
		req = requestFor(a, p)
		return nil
	})
	if err != nil {
		u.log.Warn("disburse loan application", zap.String("loan_id", in.LoanID), zap.Error(err))
		return nil, err
	}
	u.publish(ctx, in.LoanID, req.BranchID)

	if genErr := u.gen.Generate(ctx, req); genErr != nil {
		return u.compensate(ctx, in.LoanID, req.BranchID, genErr)
	}
	return u.complete(ctx, in.LoanID, product)
}

// compensate reverts a disbursement whose schedule could not be generated.
// A schedule finished meanwhile by a repair stands, and its state is returned.
func (u *Usecase) compensate(ctx context.Context, loanID, branchID string, genErr error) (*DecisionDTO, error) {
	u.log.Error("payment schedule generation failed", zap.String("loan_id", loanID), zap.Error(genErr))

	// the request may already be cancelled; the revert must still run
	cctx := context.WithoutCancel(ctx)
	var done *DecisionDTO
	err := u.uow.WithinLoanTx(cctx, loanID, func(r uow.Repos, a *loan.Application) error {
		if a.Status == loan.StatusDisbursed && a.ScheduleStatus == loan.ScheduleGenerated {
			done = toDTO(a)
			return nil
		}
		if !a.ScheduleIncomplete() {
			return nil
		}
		a.RevertDisbursement()
		return r.Loans.Save(cctx, a)
	})
	if err != nil {
		u.log.Error("revert disbursement", zap.String("loan_id", loanID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", loan.ErrScheduleIncomplete, genErr)
	}
	if done != nil {
		u.log.Warn("schedule generated by a concurrent repair", zap.String("loan_id", loanID))
		return done, nil
	}
	u.publish(cctx, loanID, branchID)
	return nil, fmt.Errorf("%w: %v", loan.ErrScheduleFailed, genErr)
}

// complete marks the schedule generated and appends the disbursement entry
// to the ledger in one transaction. An already generated schedule gets no
// second entry. It outlives the request so a client disconnect after
// generation does not strand the application.
func (u *Usecase) complete(ctx context.Context, loanID string, product loan.Product) (*DecisionDTO, error) {
	ctx = context.WithoutCancel(ctx)
	var (
		dto *DecisionDTO
		tx  *payment.Transaction
	)
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, a *loan.Application) error {
		if a.ScheduleStatus == loan.ScheduleGenerated {
			dto = toDTO(a)
			return nil
		}
		if a.Status != loan.StatusDisbursed {
			return loan.ErrInvalidTransition
		}
		a.ScheduleStatus = loan.ScheduleGenerated
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		desc := fmt.Sprintf("Loan disbursement: %s", product.Name)
		tx = &payment.Transaction{
			LoanApplicationID: &a.ID,
			CustomerID:        a.CustomerID,
			AgentID:           a.AgentID,
			BranchID:          a.BranchID,
			TransactionType:   payment.TxLoanDisbursement,
			Amount:            product.PrincipalAmount,
			Description:       &desc,
		}
		if err := r.Payments.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		dto = toDTO(a)
		dto.LedgerReference = tx.ReferenceNumber
		return nil
	})
	if err != nil {
		u.log.Error("finalize disbursement", zap.String("loan_id", loanID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", loan.ErrScheduleIncomplete, err)
	}
	if tx == nil {
		return dto, nil
	}
	u.publish(ctx, loanID, tx.BranchID)
	u.pub.Publish(ctx, change.Change{Table: change.TableTransactions, Event: change.Insert, RecordID: tx.ID, BranchID: tx.BranchID})
	return dto, nil
}

// RepairSchedule retries generation for a disbursed application without a
// schedule. A failed retry leaves the disbursement in place.
func (u *Usecase) RepairSchedule(ctx context.Context, in RepairInput) (*DecisionDTO, error) {
	if in.Actor == nil || in.Actor.Role != user.RoleAdmin {
		return nil, user.ErrForbidden
	}
	var (
		req     schedule.Request
		product loan.Product
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, a *loan.Application) error {
		if err := a.ScheduleRepairable(u.now(), u.grace); err != nil {
			return err
		}
		p, err := productOf(ctx, r.Loans, a)
		if err != nil {
			return err
		}
		a.ScheduleStatus = loan.SchedulePending
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		product = *p
		req = requestFor(a, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if genErr := u.gen.Generate(ctx, req); genErr != nil {
		u.log.Error("schedule repair failed", zap.String("loan_id", in.LoanID), zap.Error(genErr))
		cctx := context.WithoutCancel(ctx)
		markErr := u.uow.WithinLoanTx(cctx, in.LoanID, func(r uow.Repos, a *loan.Application) error {
			if !a.ScheduleIncomplete() {
				return nil
			}
			a.ScheduleStatus = loan.ScheduleFailed
			return r.Loans.Save(cctx, a)
		})
		if markErr != nil {
			u.log.Error("mark schedule failed", zap.String("loan_id", in.LoanID), zap.Error(markErr))
		}
		return nil, fmt.Errorf("%w: %v", loan.ErrScheduleIncomplete, genErr)
	}
	return u.complete(ctx, in.LoanID, product)
}

func (u *Usecase) ListIncompleteSchedules(ctx context.Context) ([]loan.Application, error) {
	out, err := u.loans.ListIncompleteSchedules(ctx)
	if err != nil {
		u.log.Error("list incomplete schedules", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (u *Usecase) publish(ctx context.Context, loanID, branchID string) {
	u.pub.Publish(ctx, change.Change{Table: change.TableLoanApplications, Event: change.Update, RecordID: loanID, BranchID: branchID})
}

func productOf(ctx context.Context, loans loan.Repository, a *loan.Application) (*loan.Product, error) {
	if a.LoanProduct != nil {
		return a.LoanProduct, nil
	}
	return loans.GetProduct(ctx, a.LoanProductID)
}

func requestFor(a *loan.Application, p *loan.Product) schedule.Request {
	return schedule.Request{
		LoanApplicationID: a.ID,
		CustomerID:        a.CustomerID,
		AgentID:           a.AgentID,
		BranchID:          a.BranchID,
		StartDate:         *a.StartDate,
		DurationDays:      p.DurationDays,
		DailyAmount:       p.DailyPayment,
	}
}
