package staff

import (
	"context"
	"errors"
	"testing"

	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/testutil/changemock"
	"microfinance-backoffice/internal/testutil/usermock"

	"go.uber.org/zap"
)

func strp(s string) *string { return &s }

func TestSetActive(t *testing.T) {
	people := map[string]*user.User{
		"ag1": {ID: "ag1", Role: user.RoleAgent, BranchID: strp("b1"), IsActive: true},
		"ag2": {ID: "ag2", Role: user.RoleAgent, BranchID: strp("b2"), IsActive: true},
		"s2":  {ID: "s2", Role: user.RoleSubAdmin, BranchID: strp("b1"), IsActive: true},
	}
	var toggled []string
	repo := &usermock.Repo{
		GetByIDFn: func(_ context.Context, id string) (*user.User, error) {
			if u, ok := people[id]; ok {
				cp := *u
				return &cp, nil
			}
			return nil, user.ErrNotFound
		},
		SetActiveFn: func(_ context.Context, id string, _ bool) error {
			toggled = append(toggled, id)
			return nil
		},
	}
	uc := NewUsecase(repo, &changemock.Publisher{}, zap.NewNop())
	sub := &user.User{ID: "s1", Role: user.RoleSubAdmin, BranchID: strp("b1")}
	admin := &user.User{ID: "a", Role: user.RoleAdmin}

	tests := []struct {
		name    string
		actor   *user.User
		target  string
		wantErr error
	}{
		{"sub_admin deactivates own agent", sub, "ag1", nil},
		{"sub_admin other branch", sub, "ag2", user.ErrForbidden},
		{"sub_admin on sub_admin", sub, "s2", user.ErrForbidden},
		{"self", sub, "s1", user.ErrForbidden},
		{"agent actor", people["ag1"], "ag2", user.ErrForbidden},
		{"admin anywhere", admin, "s2", nil},
		{"unknown", admin, "zz", user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.SetActive(context.Background(), tt.actor, tt.target, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if err == nil && got.IsActive {
				t.Fatalf("returned profile still active")
			}
		})
	}
	if len(toggled) != 2 {
		t.Fatalf("want two toggles, got %v", toggled)
	}
}

func TestList_SubAdminScopedToBranch(t *testing.T) {
	var got user.Filter
	repo := &usermock.Repo{ListFn: func(_ context.Context, f user.Filter) ([]user.User, error) {
		got = f
		return nil, nil
	}}
	uc := NewUsecase(repo, &changemock.Publisher{}, zap.NewNop())
	sub := &user.User{ID: "s1", Role: user.RoleSubAdmin, BranchID: strp("b1")}
	if _, err := uc.List(context.Background(), sub, user.Filter{BranchID: "b2", Role: user.RoleAgent}); err != nil {
		t.Fatal(err)
	}
	if got.BranchID != "b1" || got.Role != user.RoleAgent {
		t.Fatalf("filter not scoped: %+v", got)
	}
	if _, err := uc.List(context.Background(), &user.User{Role: user.RoleAgent}, user.Filter{}); !errors.Is(err, user.ErrForbidden) {
		t.Fatalf("agent list: want ErrForbidden, got %v", err)
	}
}
