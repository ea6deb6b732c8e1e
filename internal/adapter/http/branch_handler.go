package http

import (
	"net/http"

	branchuc "microfinance-backoffice/internal/usecase/branch"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type BranchHandler struct {
	uc  *branchuc.Usecase
	log *zap.Logger
}

func NewBranchHandler(uc *branchuc.Usecase, log *zap.Logger) *BranchHandler {
	return &BranchHandler{uc: uc, log: log}
}

type createBranchReq struct {
	Name    string  `json:"name"    validate:"required,max=120"`
	Code    string  `json:"code"    validate:"required,max=10"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

func (h *BranchHandler) Create(c echo.Context) error {
	var req createBranchReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	b, err := h.uc.Create(c.Request().Context(), branchuc.CreateInput{
		Actor:   actor(c),
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BranchHandler) List(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BranchHandler) Get(c echo.Context) error {
	b, err := h.uc.Get(c.Request().Context(), c.Param("branch_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}
