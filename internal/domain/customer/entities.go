package customer

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/user"
)

var (
	ErrNotFound                 = errors.New("customer not found")
	ErrInactive                 = errors.New("customer is inactive")
	ErrGuarantorRequired        = errors.New("at least one guarantor is required")
	ErrPrimaryGuarantorRequired = errors.New("exactly one primary guarantor is required")
	ErrSecondaryGuarantorLimit  = errors.New("at most one secondary guarantor is allowed")
	ErrTooManyGuarantors        = errors.New("at most two guarantors are allowed")
	ErrInvalidGuarantorType     = errors.New("guarantor type must be primary or secondary")
)

// MaxGuarantors caps guarantors per customer: one primary plus one secondary.
const MaxGuarantors = 2

type GuarantorType string

const (
	GuarantorPrimary   GuarantorType = "primary"
	GuarantorSecondary GuarantorType = "secondary"
)

// Table: customers. Soft-deleted through IsActive, never hard-deleted.
type Customer struct {
	ID                    string              `gorm:"primaryKey;size:32" json:"id"`
	FirstName             string              `gorm:"size:100;not null" json:"first_name"`
	LastName              string              `gorm:"size:100;not null" json:"last_name"`
	Phone                 string              `gorm:"size:32;not null;index" json:"phone"`
	Email                 *string             `gorm:"size:190" json:"email,omitempty"`
	DateOfBirth           *time.Time          `gorm:"type:date" json:"date_of_birth,omitempty"`
	Address               string              `gorm:"type:text;not null" json:"address"`
	Occupation            *string             `gorm:"size:120" json:"occupation,omitempty"`
	MonthlyIncome         decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"monthly_income"`
	BankName              *string             `gorm:"size:120" json:"bank_name,omitempty"`
	BankAccount           *string             `gorm:"size:40" json:"bank_account,omitempty"`
	EmergencyContactName  *string             `gorm:"size:200" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string             `gorm:"size:32" json:"emergency_contact_phone,omitempty"`
	BranchID              string              `gorm:"size:32;not null;index" json:"branch_id"`
	AgentID               string              `gorm:"size:32;not null;index" json:"agent_id"`
	IsActive              bool                `gorm:"not null;index" json:"is_active"`
	Branch                *branch.Branch      `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Agent                 *user.User          `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Guarantors            []Guarantor         `gorm:"foreignKey:CustomerID" json:"guarantors,omitempty"`
	CreatedAt             time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// Table: guarantors.
type Guarantor struct {
	ID                     string              `gorm:"primaryKey;size:32" json:"id"`
	CustomerID             string              `gorm:"size:32;not null;index" json:"customer_id"`
	Type                   GuarantorType       `gorm:"size:16;not null" json:"type"`
	FirstName              string              `gorm:"size:100;not null" json:"first_name"`
	LastName               string              `gorm:"size:100;not null" json:"last_name"`
	Phone                  string              `gorm:"size:32;not null" json:"phone"`
	Address                string              `gorm:"type:text;not null" json:"address"`
	Occupation             *string             `gorm:"size:120" json:"occupation,omitempty"`
	MonthlyIncome          decimal.NullDecimal `gorm:"type:decimal(18,2)" json:"monthly_income"`
	RelationshipToCustomer *string             `gorm:"size:60" json:"relationship_to_customer,omitempty"`
	CreatedAt              time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (Guarantor) TableName() string { return "guarantors" }

// NormalizeGuarantors applies the registration rules: one to two guarantors,
// exactly one primary, at most one secondary. An empty type defaults to
// primary for the first entry and secondary for the second.
func NormalizeGuarantors(gs []Guarantor) ([]Guarantor, error) {
	if len(gs) == 0 {
		return nil, ErrGuarantorRequired
	}
	if len(gs) > MaxGuarantors {
		return nil, ErrTooManyGuarantors
	}
	out := make([]Guarantor, len(gs))
	copy(out, gs)
	for i := range out {
		if out[i].Type == "" {
			if i == 0 {
				out[i].Type = GuarantorPrimary
			} else {
				out[i].Type = GuarantorSecondary
			}
		}
	}
	return out, checkTypes(out)
}

// CanAdd checks whether g may join the customer's existing guarantors.
func CanAdd(existing []Guarantor, g Guarantor) error {
	if len(existing) >= MaxGuarantors {
		return ErrTooManyGuarantors
	}
	all := append(append([]Guarantor{}, existing...), g)
	return checkTypes(all)
}

func checkTypes(gs []Guarantor) error {
	var primary, secondary int
	for _, g := range gs {
		switch g.Type {
		case GuarantorPrimary:
			primary++
		case GuarantorSecondary:
			secondary++
		default:
			return ErrInvalidGuarantorType
		}
	}
	if primary != 1 {
		return ErrPrimaryGuarantorRequired
	}
	if secondary > 1 {
		return ErrSecondaryGuarantorLimit
	}
	return nil
}

type Filter struct {
	BranchID string
	AgentID  string
	Active   *bool
}

// Patch lists the editable customer fields; owner branch and agent are fixed.
type Patch struct {
	FirstName             *string          `json:"first_name,omitempty"`
	LastName              *string          `json:"last_name,omitempty"`
	Phone                 *string          `json:"phone,omitempty"`
	Email                 *string          `json:"email,omitempty"`
	Address               *string          `json:"address,omitempty"`
	Occupation            *string          `json:"occupation,omitempty"`
	MonthlyIncome         *decimal.Decimal `json:"monthly_income,omitempty"`
	BankName              *string          `json:"bank_name,omitempty"`
	BankAccount           *string          `json:"bank_account,omitempty"`
	EmergencyContactName  *string          `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string          `json:"emergency_contact_phone,omitempty"`
}

func (p Patch) Columns() map[string]any {
	m := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			m[col] = *v
		}
	}
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("phone", p.Phone)
	set("email", p.Email)
	set("address", p.Address)
	set("occupation", p.Occupation)
	set("bank_name", p.BankName)
	set("bank_account", p.BankAccount)
	set("emergency_contact_name", p.EmergencyContactName)
	set("emergency_contact_phone", p.EmergencyContactPhone)
	if p.MonthlyIncome != nil {
		m["monthly_income"] = *p.MonthlyIncome
	}
	return m
}
