package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"testing"

	"microfinance-backoffice/internal/domain/change"
	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/uow"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/testutil/changemock"
	"microfinance-backoffice/internal/testutil/customermock"
	"microfinance-backoffice/internal/testutil/uowmock"
	"microfinance-backoffice/internal/testutil/usermock"
	customeruc "microfinance-backoffice/internal/usecase/customer"

	"go.uber.org/zap"
)

type customerFixture struct {
	repo       *customermock.Repo
	users      *usermock.Repo
	pub        *changemock.Publisher
	created    *customer.Customer
	guarantors []customer.Guarantor
}

func newCustomerFixture() *customerFixture {
	f := &customerFixture{pub: &changemock.Publisher{}}
	f.repo = &customermock.Repo{
		CreateFn: func(ctx context.Context, c *customer.Customer) error {
			f.created = c
			return nil
		},
		CreateGuarantorsFn: func(ctx context.Context, gs []customer.Guarantor) error {
			f.guarantors = append(f.guarantors, gs...)
			return nil
		},
		GetByIDFn: func(ctx context.Context, id string) (*customer.Customer, error) {
			return &customer.Customer{ID: id, BranchID: branchID, AgentID: agentID, IsActive: true}, nil
		},
		ListGuarantorsFn: func(ctx context.Context, id string) ([]customer.Guarantor, error) {
			return f.guarantors, nil
		},
	}
	f.users = &usermock.Repo{
		GetByIDFn: func(ctx context.Context, id string) (*user.User, error) {
			if id != agentID {
				return nil, user.ErrNotFound
			}
			return staff(user.RoleAgent), nil
		},
	}
	return f
}

func (f *customerFixture) handler() *CustomerHandler {
	tx := uowmock.Passthrough(uow.Repos{Customers: f.repo, Users: f.users})
	return NewCustomerHandler(customeruc.NewUsecase(f.repo, f.users, tx, f.pub, zap.NewNop()), zap.NewNop())
}

func guarantor(kind string) map[string]any {
	g := map[string]any{"first_name": "Tunde", "last_name": "Bello", "phone": "0800", "address": "12 Market Rd"}
	if kind != "" {
		g["guarantor_type"] = kind
	}
	return g
}

func registerBody(gs ...map[string]any) map[string]any {
	return map[string]any{
		"first_name":     "Ngozi",
		"last_name":      "Eze",
		"phone":          "0801",
		"address":        "4 Allen Ave",
		"date_of_birth":  "1990-04-01",
		"monthly_income": "45000.50",
		"guarantors":     gs,
	}
}

func TestRegisterCustomer_AgentOwnsCustomer(t *testing.T) {
	e := newEchoWithValidator()
	f := newCustomerFixture()
	c, rec := newCtx(e, stdhttp.MethodPost, "/customers", registerBody(guarantor("")), staff(user.RoleAgent))

	if err := f.handler().Register(c); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	if f.created.AgentID != agentID || f.created.BranchID != branchID || f.created.DateOfBirth == nil {
		t.Fatalf("unexpected customer: %+v", f.created)
	}
	if len(f.guarantors) != 1 || f.guarantors[0].Type != customer.GuarantorPrimary {
		t.Fatalf("guarantors = %+v", f.guarantors)
	}
	if tables := f.pub.Tables(); len(tables) != 1 || tables[0] != change.TableCustomers {
		t.Fatalf("published = %v", tables)
	}
}

func TestRegisterCustomer_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
		as   *user.User
		want int
	}{
		{"no guarantor", registerBody(), staff(user.RoleAgent), stdhttp.StatusUnprocessableEntity},
		{"two primaries", registerBody(guarantor("primary"), guarantor("primary")), staff(user.RoleAgent), stdhttp.StatusUnprocessableEntity},
		{"three guarantors", registerBody(guarantor(""), guarantor(""), guarantor("")), staff(user.RoleAgent), stdhttp.StatusUnprocessableEntity},
		{"bad guarantor type", registerBody(guarantor("tertiary")), staff(user.RoleAgent), stdhttp.StatusUnprocessableEntity},
		{"admin without agent", registerBody(guarantor("")), staff(user.RoleAdmin), stdhttp.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEchoWithValidator()
			f := newCustomerFixture()
			c, rec := newCtx(e, stdhttp.MethodPost, "/customers", tc.body, tc.as)
			if err := f.handler().Register(c); err != nil {
				t.Fatalf("Register error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tc.want, rec.Body.String())
			}
			if f.created != nil {
				t.Fatal("nothing may be written")
			}
		})
	}
}

func TestGetCustomer_OutOfScopeReadsAsMissing(t *testing.T) {
	e := newEchoWithValidator()
	f := newCustomerFixture()
	outsider := &user.User{ID: otherID, Role: user.RoleAgent, BranchID: &branchID, IsActive: true}
	c, rec := newCtx(e, stdhttp.MethodGet, "/customers/"+customerID, nil, outsider)
	c.SetParamNames("customer_id")
	c.SetParamValues(customerID)

	if err := f.handler().Get(c); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListCustomers_ActiveFilter(t *testing.T) {
	e := newEchoWithValidator()
	f := newCustomerFixture()
	var seen customer.Filter
	f.repo.ListFn = func(ctx context.Context, flt customer.Filter) ([]customer.Customer, error) {
		seen = flt
		return nil, nil
	}

	c, rec := newCtx(e, stdhttp.MethodGet, "/customers?active=true", nil, staff(user.RoleSubAdmin))
	if err := f.handler().List(c); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if rec.Code != stdhttp.StatusOK || seen.Active == nil || !*seen.Active || seen.BranchID != branchID {
		t.Fatalf("status = %d, filter = %+v", rec.Code, seen)
	}

	c, rec = newCtx(e, stdhttp.MethodGet, "/customers?active=maybe", nil, staff(user.RoleSubAdmin))
	_ = f.handler().List(c)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeactivateCustomer_SoftDeletes(t *testing.T) {
	e := newEchoWithValidator()
	f := newCustomerFixture()
	var deactivated string
	f.repo.SetActiveFn = func(ctx context.Context, id string, active bool) error {
		if !active {
			deactivated = id
		}
		return nil
	}
	c, rec := newCtx(e, stdhttp.MethodDelete, "/customers/"+customerID, nil, staff(user.RoleAgent))
	c.SetParamNames("customer_id")
	c.SetParamValues(customerID)

	if err := f.handler().Deactivate(c); err != nil {
		t.Fatalf("Deactivate error: %v", err)
	}
	if rec.Code != stdhttp.StatusNoContent || deactivated != customerID {
		t.Fatalf("status = %d, deactivated = %q", rec.Code, deactivated)
	}
}

func TestAddGuarantor_SecondBecomesSecondary(t *testing.T) {
	e := newEchoWithValidator()
	f := newCustomerFixture()
	f.guarantors = []customer.Guarantor{{ID: "g1", CustomerID: customerID, Type: customer.GuarantorPrimary}}
	c, rec := newCtx(e, stdhttp.MethodPost, "/customers/"+customerID+"/guarantors", guarantor(""), staff(user.RoleAgent))
	c.SetParamNames("customer_id")
	c.SetParamValues(customerID)

	if err := f.handler().AddGuarantor(c); err != nil {
		t.Fatalf("AddGuarantor error: %v", err)
	}
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var g customer.Guarantor
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if g.Type != customer.GuarantorSecondary {
		t.Fatalf("type = %s, want secondary", g.Type)
	}
}
