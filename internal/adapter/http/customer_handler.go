package http

import (
	"net/http"

	"microfinance-backoffice/internal/domain/customer"
	customeruc "microfinance-backoffice/internal/usecase/customer"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	uc  *customeruc.Usecase
	log *zap.Logger
}

func NewCustomerHandler(uc *customeruc.Usecase, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{uc: uc, log: log}
}

type guarantorReq struct {
	Type                   string           `json:"guarantor_type"           validate:"omitempty,oneof=primary secondary"`
	FirstName              string           `json:"first_name"               validate:"required"`
	LastName               string           `json:"last_name"                validate:"required"`
	Phone                  string           `json:"phone"                    validate:"required"`
	Address                string           `json:"address"                  validate:"required"`
	Occupation             *string          `json:"occupation"`
	MonthlyIncome          *decimal.Decimal `json:"monthly_income"           validate:"omitempty,gte=0,dec2"`
	RelationshipToCustomer *string          `json:"relationship_to_customer"`
}

func (g guarantorReq) input() customeruc.GuarantorInput {
	return customeruc.GuarantorInput{
		Type:                   customer.GuarantorType(g.Type),
		FirstName:              g.FirstName,
		LastName:               g.LastName,
		Phone:                  g.Phone,
		Address:                g.Address,
		Occupation:             g.Occupation,
		MonthlyIncome:          g.MonthlyIncome,
		RelationshipToCustomer: g.RelationshipToCustomer,
	}
}

type registerCustomerReq struct {
	AgentID               string           `json:"agent_id"                validate:"omitempty,hex32"`
	FirstName             string           `json:"first_name"              validate:"required"`
	LastName              string           `json:"last_name"               validate:"required"`
	Phone                 string           `json:"phone"                   validate:"required"`
	Email                 *string          `json:"email"                   validate:"omitempty,email"`
	DateOfBirth           string           `json:"date_of_birth"           validate:"omitempty,datetime=2006-01-02"`
	Address               string           `json:"address"                 validate:"required"`
	Occupation            *string          `json:"occupation"`
	MonthlyIncome         *decimal.Decimal `json:"monthly_income"          validate:"omitempty,gte=0,dec2"`
	BankName              *string          `json:"bank_name"`
	BankAccount           *string          `json:"bank_account"`
	EmergencyContactName  *string          `json:"emergency_contact_name"`
	EmergencyContactPhone *string          `json:"emergency_contact_phone"`
	Guarantors            []guarantorReq   `json:"guarantors"              validate:"dive"`
}

func (h *CustomerHandler) Register(c echo.Context) error {
	var req registerCustomerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	in := customeruc.RegisterInput{
		Actor:                 actor(c),
		AgentID:               req.AgentID,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Address:               req.Address,
		Occupation:            req.Occupation,
		MonthlyIncome:         req.MonthlyIncome,
		BankName:              req.BankName,
		BankAccount:           req.BankAccount,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
	}
	if req.DateOfBirth != "" {
		dob := mustDate(req.DateOfBirth)
		in.DateOfBirth = &dob
	}
	for _, g := range req.Guarantors {
		in.Guarantors = append(in.Guarantors, g.input())
	}
	out, err := h.uc.Register(c.Request().Context(), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *CustomerHandler) List(c echo.Context) error {
	active, err := boolQuery(c, "active")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "active must be a boolean"})
	}
	out, err := h.uc.List(c.Request().Context(), actor(c), customer.Filter{
		BranchID: c.QueryParam("branch_id"),
		AgentID:  c.QueryParam("agent_id"),
		Active:   active,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) Get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context(), actor(c), c.Param("customer_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) Update(c echo.Context) error {
	var p customer.Patch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	out, err := h.uc.Update(c.Request().Context(), actor(c), c.Param("customer_id"), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) Deactivate(c echo.Context) error {
	if err := h.uc.Deactivate(c.Request().Context(), actor(c), c.Param("customer_id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CustomerHandler) AddGuarantor(c echo.Context) error {
	var req guarantorReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	g, err := h.uc.AddGuarantor(c.Request().Context(), actor(c), c.Param("customer_id"), req.input())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, g)
}
