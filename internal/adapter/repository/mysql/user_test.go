package mysql

import (
	"context"
	"errors"
	"testing"

	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/pkg/id"
)

func TestUserRepository_GetByAuthIDExpandsBranch(t *testing.T) {
	db := openTestDB(t)
	f := seed(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	authID := "7c0e2b5e-0a41-4d8e-9a57-3b1a4d3f9c11"
	u := &user.User{
		ID: id.NewID32(), AuthID: &authID, Email: "sub@example.com",
		FirstName: "Sade", LastName: "Lawal", Role: user.RoleSubAdmin,
		BranchID: &f.Branch.ID, IsActive: true,
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByAuthID(ctx, authID)
	if err != nil {
		t.Fatalf("GetByAuthID: %v", err)
	}
	if got.Branch == nil || got.Branch.Code != "IGD" {
		t.Fatalf("branch not expanded: %+v", got.Branch)
	}

	if _, err := repo.GetByAuthID(ctx, "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UpdatePatchOnly(t *testing.T) {
	db := openTestDB(t)
	f := seed(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	got, err := repo.Update(ctx, f.Agent.ID, user.Patch{Phone: ptr(" 0809 ")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Phone == nil || *got.Phone != "0809" {
		t.Fatalf("phone = %v", got.Phone)
	}
	if got.FirstName != "Ada" || got.Role != user.RoleAgent {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	if _, err := repo.Update(ctx, id.NewID32(), user.Patch{FirstName: ptr("x")}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserRepository_ListAndSetActive(t *testing.T) {
	db := openTestDB(t)
	f := seed(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.SetActive(ctx, f.Agent.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	active := true
	list, err := repo.List(ctx, user.Filter{Active: &active})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != f.Admin.ID {
		t.Fatalf("unexpected active users: %+v", list)
	}

	agents, err := repo.List(ctx, user.Filter{BranchID: f.Branch.ID, Role: user.RoleAgent})
	if err != nil {
		t.Fatal(err)
	}
	if len(agents) != 1 || agents[0].IsActive {
		t.Fatalf("unexpected agents: %+v", agents)
	}

	if err := repo.SetActive(ctx, id.NewID32(), true); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	authID := "auth-1"
	u := &user.User{ID: id.NewID32(), AuthID: &authID, Email: "a@b.c", FirstName: "A", LastName: "B", Role: user.RoleAdmin, IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkEmailVerified(ctx, authID); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.GetByID(ctx, u.ID)
	if !got.EmailVerified {
		t.Fatal("email_verified not set")
	}
}
