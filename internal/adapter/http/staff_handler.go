package http

import (
	"net/http"

	"microfinance-backoffice/internal/domain/user"
	staffuc "microfinance-backoffice/internal/usecase/staff"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type StaffHandler struct {
	uc  *staffuc.Usecase
	log *zap.Logger
}

func NewStaffHandler(uc *staffuc.Usecase, log *zap.Logger) *StaffHandler {
	return &StaffHandler{uc: uc, log: log}
}

func (h *StaffHandler) List(c echo.Context) error {
	active, err := boolQuery(c, "active")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "active must be a boolean"})
	}
	out, err := h.uc.List(c.Request().Context(), actor(c), user.Filter{
		BranchID: c.QueryParam("branch_id"),
		Role:     user.Role(c.QueryParam("role")),
		Active:   active,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

type setActiveReq struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *StaffHandler) SetActive(c echo.Context) error {
	var req setActiveReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	u, err := h.uc.SetActive(c.Request().Context(), actor(c), c.Param("user_id"), *req.Active)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}
