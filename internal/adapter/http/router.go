package http

import (
	"time"

	mw "microfinance-backoffice/internal/adapter/middleware"
	"microfinance-backoffice/internal/domain/user"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Routes bundles the handlers and the cross-cutting middleware the API is
// served with.
type Routes struct {
	Health     *Handler
	Auth       *AuthHandler
	Branches   *BranchHandler
	Staff      *StaffHandler
	Customers  *CustomerHandler
	Loans      *LoanHandler
	Approvals  *ApprovalHandler
	Payments   *PaymentHandler
	Dashboards *DashboardHandler
	Live       *LiveHandler

	Authenticate echo.MiddlewareFunc
	// Idempotent guards the mutating routes that money or records hang on.
	Idempotent echo.MiddlewareFunc
}

// NewEcho builds the server with validation, panic recovery and a zap
// request log.
func NewEcho(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	return e
}

func (r *Routes) Register(e *echo.Echo) {
	e.GET("/health", r.Health.Health)

	api := e.Group("", r.Authenticate)
	signedIn := mw.RequireIdentity()
	admin := mw.RequireRoles(user.RoleAdmin)
	approvers := mw.RequireRoles(user.RoleAdmin, user.RoleSubAdmin)
	idem := r.Idempotent

	auth := api.Group("/auth")
	auth.POST("/signup", r.Auth.SignUp, mw.PublicOnly())
	auth.POST("/signin", r.Auth.SignIn, mw.PublicOnly())
	auth.POST("/signout", r.Auth.SignOut, signedIn)
	auth.GET("/me", r.Auth.Me, signedIn)
	auth.PATCH("/me", r.Auth.UpdateMe, signedIn)
	auth.POST("/resend", r.Auth.Resend)
	auth.GET("/confirm", r.Auth.Confirm)
	auth.GET("/login-context", r.Auth.LoginContext)

	api.GET("/branches", r.Branches.List)
	api.GET("/branches/:branch_id", r.Branches.Get)
	api.POST("/branches", r.Branches.Create, admin)
	api.POST("/branches/select", r.Auth.SelectBranch)

	staff := api.Group("/staff", approvers)
	staff.GET("", r.Staff.List)
	staff.PATCH("/:user_id/active", r.Staff.SetActive)

	customers := api.Group("/customers", signedIn)
	customers.POST("", r.Customers.Register, idem)
	customers.GET("", r.Customers.List)
	customers.GET("/:customer_id", r.Customers.Get)
	customers.PATCH("/:customer_id", r.Customers.Update)
	customers.DELETE("/:customer_id", r.Customers.Deactivate)
	customers.POST("/:customer_id/guarantors", r.Customers.AddGuarantor, idem)

	api.GET("/loan-products", r.Loans.Products, signedIn)

	loans := api.Group("/loans", signedIn)
	loans.POST("", r.Loans.CreateLoan, idem)
	loans.GET("", r.Loans.ListLoans)
	loans.GET("/incomplete", r.Approvals.IncompleteSchedules, admin)
	loans.GET("/:loan_id", r.Loans.GetLoan)
	loans.POST("/:loan_id/approve", r.Approvals.ApproveLoan, approvers)
	loans.POST("/:loan_id/reject", r.Approvals.RejectLoan, approvers)
	loans.POST("/:loan_id/disburse", r.Approvals.DisburseLoan, approvers, idem)
	loans.POST("/:loan_id/repair-schedule", r.Approvals.RepairSchedule, admin)

	payments := api.Group("/payments", signedIn)
	payments.POST("", r.Payments.RecordPayment, idem)
	payments.GET("/schedule", r.Payments.Schedule)
	payments.GET("/weekly", r.Payments.Weekly)
	payments.PUT("/weekly", r.Payments.UpdateWeekly)

	api.GET("/transactions", r.Payments.Transactions, signedIn)
	api.POST("/transactions", r.Payments.CreateTransaction, signedIn, idem)

	dash := api.Group("/dashboard", signedIn)
	dash.GET("", r.Dashboards.Mine)
	dash.GET("/admin", r.Dashboards.Admin, admin)
	dash.GET("/branch", r.Dashboards.Branch, approvers)
	dash.GET("/agent", r.Dashboards.Agent)
	dash.GET("/live", r.Dashboards.Live)

	api.GET("/live/:table", r.Live.Subscribe, signedIn)
}

// ShutdownTimeout bounds graceful shutdown; open event streams end with it.
const ShutdownTimeout = 10 * time.Second
