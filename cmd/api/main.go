package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"microfinance-backoffice/internal/adapter/authprovider"
	httpadp "microfinance-backoffice/internal/adapter/http"
	mw "microfinance-backoffice/internal/adapter/middleware"
	"microfinance-backoffice/internal/adapter/realtime"
	"microfinance-backoffice/internal/adapter/repository/mysql"
	"microfinance-backoffice/internal/config"
	"microfinance-backoffice/internal/domain/schedule"
	"microfinance-backoffice/internal/infrastructure/cache"
	"microfinance-backoffice/internal/infrastructure/db"
	"microfinance-backoffice/internal/infrastructure/logging"
	"microfinance-backoffice/internal/session"
	ucApproval "microfinance-backoffice/internal/usecase/approval"
	authuc "microfinance-backoffice/internal/usecase/auth"
	branchuc "microfinance-backoffice/internal/usecase/branch"
	customeruc "microfinance-backoffice/internal/usecase/customer"
	"microfinance-backoffice/internal/usecase/dashboard"
	loanuc "microfinance-backoffice/internal/usecase/loan"
	paymentuc "microfinance-backoffice/internal/usecase/payment"
	staffuc "microfinance-backoffice/internal/usecase/staff"
	"microfinance-backoffice/pkg/id"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := id.SetNode(cfg.SnowflakeNode); err != nil {
		return fmt.Errorf("snowflake node: %w", err)
	}

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if err := mysql.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := authprovider.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate auth: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	// repositories
	branches := mysql.NewBranchRepository(gdb)
	users := mysql.NewUserRepository(gdb)
	customers := mysql.NewCustomerRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	payments := mysql.NewPaymentRepository(gdb)
	reports := mysql.NewReportingRepository(sqlDB, cfg.DBDriver)
	tx := mysql.NewGormUoW(gdb)

	var gen schedule.Generator = mysql.NewProcedureScheduleGenerator(gdb)
	if cfg.ScheduleMode == "inline" {
		gen = mysql.NewInlineScheduleGenerator(gdb)
	}

	provider := authprovider.New(gdb, rdb, logger, authprovider.Options{
		Secret:     cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		SessionTTL: cfg.SessionTTL,
	})
	feed := realtime.NewFeed(rdb, logger)

	// usecases
	authUC := authuc.NewUsecase(provider, users, branches, logger)
	branchUC := branchuc.NewUsecase(branches, logger)
	staffUC := staffuc.NewUsecase(users, feed, logger)
	customerUC := customeruc.NewUsecase(customers, users, tx, feed, logger)
	loanUC := loanuc.NewUsecase(loans, customers, users, branches, feed, logger)
	approvalUC := ucApproval.NewUsecase(loans, tx, gen, feed, logger)
	paymentUC := paymentuc.NewUsecase(payments, tx, feed, logger)
	dashboardUC := dashboard.NewUsecase(customers, loans, payments, users, reports, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := session.NewRegistry(users, cfg.SessionTTL, logger)
	events, err := provider.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe auth events: %w", err)
	}

	routes := &httpadp.Routes{
		Health: httpadp.NewHandler(map[string]httpadp.Check{
			"db":    sqlDB.PingContext,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Auth:       httpadp.NewAuthHandler(authUC, branchUC, sessions, logger, strings.HasPrefix(cfg.SiteURL, "https://")),
		Branches:   httpadp.NewBranchHandler(branchUC, logger),
		Staff:      httpadp.NewStaffHandler(staffUC, logger),
		Customers:  httpadp.NewCustomerHandler(customerUC, logger),
		Loans:      httpadp.NewLoanHandler(loanUC, logger),
		Approvals:  httpadp.NewApprovalHandler(approvalUC, logger),
		Payments:   httpadp.NewPaymentHandler(paymentUC, loanUC, logger),
		Dashboards: httpadp.NewDashboardHandler(dashboardUC, feed, logger),
		Live:       httpadp.NewLiveHandler(feed, logger),

		Authenticate: mw.Authenticate(authUC, sessions, logger),
		Idempotent:   mw.Idempotency(rdb, cfg.IdempotencyTTL(), mw.Subject, logger),
	}
	e := httpadp.NewEcho(logger)
	routes.Register(e)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Run(gctx, events)
		return nil
	})
	g.Go(func() error {
		return authuc.NewProvisioner(provider, users, logger).Run(gctx)
	})
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		logger.Info("listening", zap.String("addr", addr), zap.String("db", cfg.DBDriver), zap.String("schedule_mode", cfg.ScheduleMode))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), httpadp.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	logger.Info("bye", zap.Time("at", time.Now().UTC()))
	return nil
}
