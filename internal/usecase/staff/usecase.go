package staff

import (
	"context"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/user"

	"go.uber.org/zap"
)

// Usecase manages staff profiles on behalf of admins and sub-admins. New
// staff join through sign-up; this only lists and (de)activates them.
type Usecase struct {
	users user.Repository
	pub   change.Publisher
	log   *zap.Logger
}

func NewUsecase(users user.Repository, pub change.Publisher, log *zap.Logger) *Usecase {
	return &Usecase{users: users, pub: pub, log: log}
}

func (u *Usecase) List(ctx context.Context, actor *user.User, f user.Filter) ([]user.User, error) {
	if actor == nil || !actor.Role.Approver() {
		return nil, user.ErrForbidden
	}
	if actor.Role == user.RoleSubAdmin {
		f.BranchID, _ = actor.Scope(f.BranchID, "")
	}
	return u.users.List(ctx, f)
}

// SetActive toggles a staff account. Sub-admins may only manage agents of
// their own branch, and nobody can deactivate themselves.
func (u *Usecase) SetActive(ctx context.Context, actor *user.User, userID string, active bool) (*user.User, error) {
	if actor == nil || !actor.Role.Approver() || actor.ID == userID {
		return nil, user.ErrForbidden
	}
	target, err := u.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.Role == user.RoleSubAdmin {
		if target.Role != user.RoleAgent || target.BranchID == nil || !actor.InBranch(*target.BranchID) {
			return nil, user.ErrForbidden
		}
	}
	if err := u.users.SetActive(ctx, userID, active); err != nil {
		u.log.Error("set staff active", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	target.IsActive = active
	u.pub.Publish(ctx, change.Change{Table: change.TableUsers, Event: change.Update, RecordID: userID})
	return target, nil
}
