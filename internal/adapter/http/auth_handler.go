package http

import (
	"errors"
	"net/http"
	"time"

	"microfinance-backoffice/internal/adapter/middleware"
	"microfinance-backoffice/internal/domain/branch"
	"microfinance-backoffice/internal/domain/user"
	"microfinance-backoffice/internal/session"
	authuc "microfinance-backoffice/internal/usecase/auth"
	branchuc "microfinance-backoffice/internal/usecase/branch"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CookieSelectedBranch remembers the branch picked on the login screen.
// It is informational only and never authorizes anything.
const CookieSelectedBranch = "selected_branch"

type AuthHandler struct {
	uc       *authuc.Usecase
	branches *branchuc.Usecase
	sessions *session.Registry
	log      *zap.Logger
	secure   bool
}

func NewAuthHandler(uc *authuc.Usecase, branches *branchuc.Usecase, sessions *session.Registry, log *zap.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{uc: uc, branches: branches, sessions: sessions, log: log, secure: secureCookies}
}

type signUpReq struct {
	Email      string  `json:"email"       validate:"required,email"`
	Password   string  `json:"password"    validate:"required,min=6"`
	FirstName  string  `json:"first_name"  validate:"required"`
	LastName   string  `json:"last_name"   validate:"required"`
	Phone      *string `json:"phone"`
	Role       string  `json:"role"        validate:"required,oneof=admin sub_admin agent"`
	BranchID   *string `json:"branch_id"   validate:"omitempty,hex32"`
	RedirectTo string  `json:"redirect_to" validate:"omitempty,url"`
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.SignUp(c.Request().Context(), authuc.SignUpInput{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Role:       user.Role(req.Role),
		BranchID:   req.BranchID,
		RedirectTo: req.RedirectTo,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, res)
}

type signInReq struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInResp struct {
	*authuc.SignInResult
	Redirect string `json:"redirect"`
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.sessions.Apply(res.Session.ID, session.Update{Kind: session.SignedIn, Identity: res.Profile})
	h.sessions.SetExpiry(res.Session.ID, res.Session.ExpiresAt)
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieAccessToken,
		Value:    res.Session.AccessToken,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, signInResp{SignInResult: res, Redirect: homeFor(res.Profile)})
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.uc.SignOut(c.Request().Context(), middleware.AccessToken(c)); err != nil {
		return respondError(c, h.log, err)
	}
	h.sessions.Apply(middleware.SessionID(c), session.Update{Kind: session.SignedOut})
	c.SetCookie(&http.Cookie{Name: middleware.CookieAccessToken, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.secure})
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	a := actor(c)
	return c.JSON(http.StatusOK, map[string]any{"profile": a, "home": homeFor(a)})
}

func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var p user.Patch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	out, err := h.uc.UpdateProfile(c.Request().Context(), actor(c), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.sessions.Apply(middleware.SessionID(c), session.Update{Kind: session.UserUpdated, Identity: out})
	return c.JSON(http.StatusOK, out)
}

type resendReq struct {
	Email      string `json:"email"       validate:"required,email"`
	RedirectTo string `json:"redirect_to" validate:"omitempty,url"`
}

func (h *AuthHandler) Resend(c echo.Context) error {
	var req resendReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.uc.ResendVerification(c.Request().Context(), req.Email, req.RedirectTo); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *AuthHandler) Confirm(c echo.Context) error {
	who, err := h.uc.ConfirmEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, who)
}

type loginContext struct {
	SelectedBranch *branch.Branch  `json:"selected_branch"`
	Branches       []branch.Branch `json:"branches"`
}

// LoginContext feeds the login screen: active branches and the one chosen
// last time, if it still exists.
func (h *AuthHandler) LoginContext(c echo.Context) error {
	ctx := c.Request().Context()
	list, err := h.branches.List(ctx)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := loginContext{Branches: list}
	if ck, err := c.Cookie(CookieSelectedBranch); err == nil && ck.Value != "" {
		b, err := h.branches.Get(ctx, ck.Value)
		switch {
		case err == nil:
			out.SelectedBranch = b
		case !errors.Is(err, branch.ErrNotFound):
			h.log.Warn("selected branch", zap.String("branch_id", ck.Value), zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, out)
}

type selectBranchReq struct {
	BranchID string `json:"branch_id" validate:"required,hex32"`
}

func (h *AuthHandler) SelectBranch(c echo.Context) error {
	var req selectBranchReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	b, err := h.branches.Get(c.Request().Context(), req.BranchID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieSelectedBranch,
		Value:    b.ID,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, b)
}
