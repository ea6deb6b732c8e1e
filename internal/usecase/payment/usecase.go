package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/schedule"
	"microfinance-backoffice/internal/domain/uow"
	"microfinance-backoffice/internal/domain/user"

	"go.uber.org/zap"
)

var (
	ErrLoanNotDisbursed = errors.New("payments can only be recorded against a disbursed loan")
	ErrIdentityMismatch = errors.New("customer, agent or branch does not match the loan application")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrMissingIdentity  = errors.New("loan application, customer, agent and branch are required")
)

type Usecase struct {
	payments payment.Repository
	uow      uow.UnitOfWork
	pub      change.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewUsecase(payments payment.Repository, tx uow.UnitOfWork, pub change.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{
		payments: payments,
		uow:      tx,
		pub:      pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func checkIdentity(id payment.Identity) error {
	if id.LoanApplicationID == "" || id.CustomerID == "" || id.AgentID == "" || id.BranchID == "" {
		return ErrMissingIdentity
	}
	return nil
}

func authorize(actor *user.User, branchID, agentID string) error {
	if actor != nil && !actor.Covers(branchID, agentID) {
		return user.ErrForbidden
	}
	return nil
}

// RecordPayment marks a scheduled collection paid and appends the matching
// daily_payment entry to the ledger. Recording the same date again
// overwrites the record and appends another entry; the loan row lock
// serializes concurrent recordings for one loan.
func (u *Usecase) RecordPayment(ctx context.Context, in RecordInput) (*RecordResult, error) {
	id := in.identity()
	if err := checkIdentity(id); err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, payment.ErrInvalidMethod
	}
	if in.ActualAmount.IsNegative() || in.ExpectedAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if err := authorize(in.Actor, in.BranchID, in.AgentID); err != nil {
		return nil, err
	}
	date := schedule.Date(in.PaymentDate)

	var res RecordResult
	err := u.uow.WithinLoanTx(ctx, in.LoanApplicationID, func(r uow.Repos, a *loan.Application) error {
		if a.CustomerID != in.CustomerID || a.AgentID != in.AgentID || a.BranchID != in.BranchID {
			return ErrIdentityMismatch
		}
		if a.Status != loan.StatusDisbursed {
			return ErrLoanNotDisbursed
		}
		if in.ExpectedVersion != nil {
			if err := checkVersion(ctx, r.Payments, in.LoanApplicationID, date, *in.ExpectedVersion); err != nil {
				return err
			}
		}

		now := u.now()
		method := in.PaymentMethod
		stored, err := r.Payments.UpsertDaily(ctx, &payment.DailyPayment{
			LoanApplicationID: id.LoanApplicationID,
			CustomerID:        id.CustomerID,
			AgentID:           id.AgentID,
			BranchID:          id.BranchID,
			PaymentDate:       date,
			ExpectedAmount:    in.ExpectedAmount,
			ActualAmount:      in.ActualAmount,
			PaymentMethod:     &method,
			IsPaid:            true,
			PaymentTime:       &now,
			Notes:             in.Notes,
		})
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("Daily payment for %s", date.Format("2006-01-02"))
		tx := &payment.Transaction{
			LoanApplicationID: &id.LoanApplicationID,
			CustomerID:        id.CustomerID,
			AgentID:           id.AgentID,
			BranchID:          id.BranchID,
			TransactionType:   payment.TxDailyPayment,
			Amount:            stored.CollectedAmount(),
			PaymentMethod:     &method,
			Description:       &desc,
		}
		if err := r.Payments.CreateTransaction(ctx, tx); err != nil {
			return err
		}
		res = RecordResult{Payment: stored, Transaction: tx}
		return nil
	})
	if err != nil {
		u.log.Warn("record payment", zap.String("loan_id", in.LoanApplicationID), zap.Error(err))
		return nil, err
	}

	event := change.Update
	if res.Payment.Version == 1 {
		event = change.Insert
	}
	u.pub.Publish(ctx, change.Change{Table: change.TableDailyPayments, Event: event, RecordID: res.Payment.ID, BranchID: in.BranchID})
	u.pub.Publish(ctx, change.Change{Table: change.TableTransactions, Event: change.Insert, RecordID: res.Transaction.ID, BranchID: in.BranchID})
	return &res, nil
}

func checkVersion(ctx context.Context, repo payment.Repository, loanID string, date time.Time, want int64) error {
	cur, err := repo.GetDaily(ctx, loanID, date)
	switch {
	case errors.Is(err, payment.ErrNotFound):
		if want != 0 {
			return payment.ErrVersionConflict
		}
		return nil
	case err != nil:
		return err
	case cur.Version != want:
		return payment.ErrVersionConflict
	}
	return nil
}

// UpdateWeeklyTracking writes one day of a weekly roster row. It does not
// touch the daily record or the ledger.
func (u *Usecase) UpdateWeeklyTracking(ctx context.Context, in WeeklyInput) (*payment.WeeklyTracking, error) {
	id := payment.Identity{
		LoanApplicationID: in.LoanApplicationID,
		CustomerID:        in.CustomerID,
		AgentID:           in.AgentID,
		BranchID:          in.BranchID,
	}
	if err := checkIdentity(id); err != nil {
		return nil, err
	}
	week := schedule.Date(in.WeekStart)
	if week.Weekday() != time.Monday {
		return nil, payment.ErrWeekStartNotMonday
	}
	day, err := payment.ParseDay(in.Day)
	if err != nil {
		return nil, err
	}
	if in.Amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if err := authorize(in.Actor, in.BranchID, in.AgentID); err != nil {
		return nil, err
	}

	row, err := u.payments.UpsertWeeklyDay(ctx, payment.WeeklyDayUpdate{
		Identity:  id,
		WeekStart: week,
		Day:       day,
		Amount:    in.Amount,
		Paid:      in.Paid,
	})
	if err != nil {
		u.log.Warn("update weekly tracking", zap.String("loan_id", in.LoanApplicationID), zap.Error(err))
		return nil, err
	}
	u.pub.Publish(ctx, change.Change{Table: change.TableWeeklyTracking, Event: change.Update, RecordID: row.ID, BranchID: in.BranchID})
	return row, nil
}

// AgentSchedule lists the agent's collections due on date.
func (u *Usecase) AgentSchedule(ctx context.Context, agentID string, date time.Time) ([]payment.DailyPayment, error) {
	out, err := u.payments.ListDailyByAgentDate(ctx, agentID, schedule.Date(date))
	if err != nil {
		u.log.Error("agent schedule", zap.String("agent_id", agentID), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (u *Usecase) LoanSchedule(ctx context.Context, loanID string) ([]payment.DailyPayment, error) {
	return u.payments.ListDailyByLoan(ctx, loanID)
}

func (u *Usecase) WeeklyTracking(ctx context.Context, f payment.WeeklyFilter) ([]payment.WeeklyTracking, error) {
	f.WeekStart = schedule.WeekStart(f.WeekStart)
	out, err := u.payments.ListWeekly(ctx, f)
	if err != nil {
		u.log.Error("weekly tracking", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// CreateTransaction appends a ledger entry. The reference number defaults
// to a generated TXN- value.
func (u *Usecase) CreateTransaction(ctx context.Context, in TransactionInput) (*payment.Transaction, error) {
	if in.CustomerID == "" || in.AgentID == "" || in.BranchID == "" {
		return nil, ErrMissingIdentity
	}
	if !in.TransactionType.Valid() {
		return nil, payment.ErrInvalidTxType
	}
	if in.PaymentMethod != nil && !in.PaymentMethod.Valid() {
		return nil, payment.ErrInvalidMethod
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := authorize(in.Actor, in.BranchID, in.AgentID); err != nil {
		return nil, err
	}
	tx := &payment.Transaction{
		LoanApplicationID: in.LoanApplicationID,
		CustomerID:        in.CustomerID,
		AgentID:           in.AgentID,
		BranchID:          in.BranchID,
		TransactionType:   in.TransactionType,
		Amount:            in.Amount,
		PaymentMethod:     in.PaymentMethod,
		ReferenceNumber:   in.ReferenceNumber,
		Description:       in.Description,
	}
	if err := u.payments.CreateTransaction(ctx, tx); err != nil {
		u.log.Error("create transaction", zap.Error(err))
		return nil, err
	}
	u.pub.Publish(ctx, change.Change{Table: change.TableTransactions, Event: change.Insert, RecordID: tx.ID, BranchID: tx.BranchID})
	return tx, nil
}

// Transactions lists ledger entries newest first, narrowed to what actor
// may see.
func (u *Usecase) Transactions(ctx context.Context, actor *user.User, f payment.TransactionFilter) ([]payment.Transaction, error) {
	if actor != nil {
		f.BranchID, f.AgentID = actor.Scope(f.BranchID, f.AgentID)
	}
	out, err := u.payments.ListTransactions(ctx, f)
	if err != nil {
		u.log.Error("list transactions", zap.Error(err))
		return nil, err
	}
	return out, nil
}
