package customer

import (
	"time"

	"microfinance-backoffice/internal/domain/customer"
	"microfinance-backoffice/internal/domain/user"

	"github.com/shopspring/decimal"
)

type GuarantorInput struct {
	Type                   customer.GuarantorType
	FirstName              string
	LastName               string
	Phone                  string
	Address                string
	Occupation             *string
	MonthlyIncome          *decimal.Decimal
	RelationshipToCustomer *string
}

func (g GuarantorInput) toEntity() customer.Guarantor {
	out := customer.Guarantor{
		Type:                   g.Type,
		FirstName:              g.FirstName,
		LastName:               g.LastName,
		Phone:                  g.Phone,
		Address:                g.Address,
		Occupation:             g.Occupation,
		RelationshipToCustomer: g.RelationshipToCustomer,
	}
	if g.MonthlyIncome != nil {
		out.MonthlyIncome = decimal.NewNullDecimal(*g.MonthlyIncome)
	}
	return out
}

// RegisterInput is the registration form. AgentID is ignored for agents,
// who always register customers for themselves.
type RegisterInput struct {
	Actor                 *user.User
	AgentID               string
	FirstName             string
	LastName              string
	Phone                 string
	Email                 *string
	DateOfBirth           *time.Time
	Address               string
	Occupation            *string
	MonthlyIncome         *decimal.Decimal
	BankName              *string
	BankAccount           *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	Guarantors            []GuarantorInput
}
