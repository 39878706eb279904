package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/orgfinance/internal"
	"github.com/frahmantamala/orgfinance/internal/auth"
	"github.com/frahmantamala/orgfinance/internal/category"
	categoryPostgres "github.com/frahmantamala/orgfinance/internal/category/postgres"
	"github.com/frahmantamala/orgfinance/internal/core/events"
	"github.com/frahmantamala/orgfinance/internal/finance"
	financePostgres "github.com/frahmantamala/orgfinance/internal/finance/postgres"
	"github.com/frahmantamala/orgfinance/internal/invite"
	invitePostgres "github.com/frahmantamala/orgfinance/internal/invite/postgres"
	"github.com/frahmantamala/orgfinance/internal/membership"
	membershipPostgres "github.com/frahmantamala/orgfinance/internal/membership/postgres"
	"github.com/frahmantamala/orgfinance/internal/organization"
	organizationPostgres "github.com/frahmantamala/orgfinance/internal/organization/postgres"
	"github.com/frahmantamala/orgfinance/internal/reimbursement"
	reimbursementPostgres "github.com/frahmantamala/orgfinance/internal/reimbursement/postgres"
	"github.com/frahmantamala/orgfinance/internal/stats"
	"github.com/frahmantamala/orgfinance/internal/transaction"
	transactionPostgres "github.com/frahmantamala/orgfinance/internal/transaction/postgres"
	"github.com/frahmantamala/orgfinance/internal/transport/rest"
	"github.com/frahmantamala/orgfinance/internal/user"
	userPostgres "github.com/frahmantamala/orgfinance/internal/user/postgres"
	"github.com/frahmantamala/orgfinance/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	GormDB   *gorm.DB
	Router   *chi.Mux
	Handlers rest.Handlers
	AuthSvc  *auth.Service
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Handlers, deps.AuthSvc,
		deps.Config.Server.AllowedOrigins, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(appLogger)
	subscribeAuditLog(eventBus, appLogger)

	// Repositories
	userRepo := userPostgres.NewUserRepository(gormDB)
	membershipRepo := membershipPostgres.NewMembershipRepository(gormDB)
	organizationRepo := organizationPostgres.NewOrganizationRepository(gormDB)
	transactionRepo := transactionPostgres.NewTransactionRepository(gormDB)
	reimbursementRepo := reimbursementPostgres.NewReimbursementRepository(gormDB)
	inviteRepo := invitePostgres.NewInviteRepository(gormDB)
	categoryRepo := categoryPostgres.NewCategoryRepository(gormDB)
	baselineRepo := financePostgres.NewBaselineRepository(gormDB)

	// Services
	tokenGen := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret, config.Security.RefreshTokenSecret)
	tokenGen.AccessTokenTTL = config.Security.AccessTokenDuration
	tokenGen.RefreshTokenTTL = config.Security.RefreshTokenDuration

	authSvc := auth.NewService(userRepo, tokenGen, config.Security.BCryptCost)
	userSvc := user.NewService(userRepo, appLogger)
	membershipSvc := membership.NewService(membershipRepo, appLogger)
	organizationSvc := organization.NewService(organizationRepo, membershipSvc, membershipRepo, eventBus, appLogger)
	categorySvc := category.NewService(categoryRepo, membershipSvc, appLogger)
	transactionSvc := transaction.NewService(transactionRepo, membershipSvc, categorySvc, eventBus, appLogger)
	reimbursementSvc := reimbursement.NewService(reimbursementRepo, transactionSvc, membershipSvc, appLogger)
	financeSvc := finance.NewService(transactionRepo, membershipRepo, reimbursementSvc, baselineRepo, membershipSvc, eventBus, appLogger)
	inviteSvc := invite.NewService(inviteRepo, membershipRepo, membershipSvc, eventBus, appLogger)
	statsSvc := stats.NewService(db, appLogger)

	handlers := rest.Handlers{
		Auth:          auth.NewHandler(authSvc),
		User:          user.NewHandler(userSvc),
		Organization:  organization.NewHandler(organizationSvc),
		Membership:    membership.NewHandler(membershipSvc),
		Transaction:   transaction.NewHandler(transactionSvc),
		Finance:       finance.NewHandler(financeSvc),
		Reimbursement: reimbursement.NewHandler(reimbursementSvc),
		Invite:        invite.NewHandler(inviteSvc),
		Category:      category.NewHandler(categorySvc),
		Stats:         stats.NewHandler(statsSvc),
	}

	return &Dependencies{
		Config:   config,
		Logger:   appLogger,
		DB:       db,
		GormDB:   gormDB,
		Router:   chi.NewRouter(),
		Handlers: handlers,
		AuthSvc:  authSvc,
	}, nil
}

// subscribeAuditLog logs every domain event. It doubles as a liveness probe
// for the bus during development.
func subscribeAuditLog(bus *events.EventBus, log *slog.Logger) {
	handler := func(ctx context.Context, event events.Event) error {
		log.Info("domain event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	}
	bus.Subscribe(events.EventTypeLedgerChanged, handler)
	bus.Subscribe(events.EventTypeMembershipChanged, handler)
	bus.Subscribe(events.EventTypeBaselineChanged, handler)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
