package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/healflow/healflow/internal/config"
	"github.com/healflow/healflow/internal/domain/appointment"
	"github.com/healflow/healflow/internal/domain/dashboard"
	"github.com/healflow/healflow/internal/domain/directory"
	"github.com/healflow/healflow/internal/domain/identity"
	"github.com/healflow/healflow/internal/domain/labcart"
	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/cache"
	"github.com/healflow/healflow/internal/platform/db"
	"github.com/healflow/healflow/internal/platform/middleware"
	"github.com/healflow/healflow/internal/platform/notification"
	"github.com/healflow/healflow/internal/platform/openapi"
	"github.com/healflow/healflow/internal/platform/sandbox"
	"github.com/healflow/healflow/internal/platform/validate"
	"github.com/healflow/healflow/migrations"
)

const (
	version         = "0.1.0"
	apiPrefix       = "/api/v1"
	defaultSchema   = "public"
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	maxBodySize     = "1M"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "healflow-server",
		Short: "HealFlow hospital appointment API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HealFlow API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// migrationSource prefers MIGRATIONS_DIR on disk and falls back to the
// migrations compiled into the binary.
func migrationSource(dir string) fs.FS {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir)
		}
	}
	return migrations.FS
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	withMigrator := func(run func(ctx context.Context, m *db.Migrator, schema string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			return run(ctx, db.NewMigrator(pool, migrationSource(dir)), schema)
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator, schema string) error {
			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := m.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		}),
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator, schema string) error {
			statuses, err := m.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		}),
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recently applied migration",
		RunE: withMigrator(func(ctx context.Context, m *db.Migrator, schema string) error {
			mig, err := m.Down(ctx, schema)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			if mig == nil {
				fmt.Println("Nothing to revert.")
				return nil
			}
			fmt.Printf("Reverted migration %d (%s).\n", mig.Version, mig.Name)
			return nil
		}),
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd, downCmd} {
		c.Flags().String("schema", defaultSchema, "Target schema for migrations")
		c.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR, then the embedded set)")
		cmd.AddCommand(c)
	}
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo departments, doctors, patients and appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			revocations := auth.NewMemoryRevocationStore()
			defer revocations.Close()

			// Seeding never mails the demo addresses.
			svc := newServices(pool, cfg, notification.NewLogSender(zerolog.Nop()), revocations, logger)
			if err := ensureAdmin(ctx, svc.identity, cfg, logger); err != nil {
				return err
			}

			seeder := sandbox.NewSeeder(svc.directory, svc.appointments, logger)
			result, err := seeder.Seed(ctx)
			_ = svc.notices.Wait(ctx)
			if err != nil {
				if errors.Is(err, directory.ErrDuplicateDepartment) {
					return fmt.Errorf("database already contains seed data: %w", err)
				}
				return err
			}

			fmt.Printf("Seeded %d departments, %d doctors (%d availability windows), %d patients, %d appointments (%d treatments) in %s.\n",
				result.Departments, result.Doctors, result.Availability, result.Patients,
				result.Appointments, result.Treatments, result.Duration.Round(time.Millisecond))
			fmt.Printf("admin   %-16s %s\n", cfg.AdminUsername, cfg.AdminPassword)
			for _, line := range sandbox.Credentials() {
				fmt.Println(line)
			}
			return nil
		},
	}
}

// services holds every domain service of one process.
type services struct {
	identity     *identity.Service
	directory    *directory.Service
	appointments *appointment.Service
	labcart      *labcart.Service
	dashboard    *dashboard.Service
	notices      *notification.Dispatcher
}

func newServices(pool *pgxpool.Pool, cfg *config.Config, sender notification.EmailSender, revocations auth.RevocationStore, logger zerolog.Logger) *services {
	tx := db.NewTxManager(pool)
	mail := notification.NewManager(sender, notification.NewTemplateEngine())
	notices := notification.NewDispatcher(notification.DefaultDeliveryTimeout, notification.DefaultMaxInFlight, logger)

	tokens := auth.NewTokenIssuer([]byte(cfg.AuthSigningKey), cfg.AuthIssuer, cfg.TokenTTL)
	identitySvc := identity.NewService(identity.NewRepo(pool), tokens, revocations)

	directorySvc := directory.NewService(directory.NewRepo(pool), &accountAdapter{svc: identitySvc}, tx)
	directorySvc.SetNotifier(directory.NewMailNotifier(mail), notices)

	appointmentSvc := appointment.NewService(appointment.NewRepo(pool), newAppointmentProfiles(directorySvc), tx)
	appointmentSvc.SetNotifier(appointment.NewMailNotifier(mail), notices)

	labcartSvc := labcart.NewService(labcart.NewRepo(pool), newLabcartPatients(directorySvc))

	return &services{
		identity:     identitySvc,
		directory:    directorySvc,
		appointments: appointmentSvc,
		labcart:      labcartSvc,
		dashboard:    dashboard.NewService(directorySvc, appointmentSvc, labcartSvc, mail),
		notices:      notices,
	}
}

func (s *services) registerRoutes(e *echo.Echo, api *echo.Group) {
	identity.NewHandler(s.identity).RegisterRoutes(api)
	directory.NewHandler(s.directory).RegisterRoutes(api)
	appointment.NewHandler(s.appointments).RegisterRoutes(api)
	labcart.NewHandler(s.labcart).RegisterRoutes(api)
	dashboard.NewHandler(s.dashboard).RegisterRoutes(api)
	openapi.NewGenerator(e.Routes, apiPrefix, version).RegisterRoutes(api)
}

func ensureAdmin(ctx context.Context, svc *identity.Service, cfg *config.Config, logger zerolog.Logger) error {
	created, err := svc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info().Str("username", cfg.AdminUsername).Msg("admin account created")
	}
	return nil
}

func mailSender(cfg *config.Config, logger zerolog.Logger) notification.EmailSender {
	if !cfg.MailEnabled() {
		logger.Info().Msg("SMTP_HOST not set, outbound mail is logged only")
		return notification.NewLogSender(logger)
	}
	return notification.NewSMTPSender(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}

// newEcho builds the server with the global middleware stack. Routes under
// /api/v1 require a bearer token except the public auth endpoints.
func newEcho(cfg *config.Config, logger zerolog.Logger, revocations auth.RevocationStore) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      cfg.AuthIssuer,
		SigningKey:  []byte(cfg.AuthSigningKey),
		Revocations: revocations,
		Skipper:     auth.AuthSkipper,
	}))
	e.Use(middleware.Audit(logger))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api := e.Group(apiPrefix, middleware.RateLimit(rateLimitCfg))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	return e, api
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Token revocations are shared through Redis when configured.
	var (
		revocations auth.RevocationStore
		checks      []db.DependencyCheck
	)
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = auth.NewRedisRevocationStore(client)
		checks = append(checks, db.DependencyCheck{Name: "redis", Ping: cache.Ping(client)})
		logger.Info().Msg("connected to redis")
	} else {
		mem := auth.NewMemoryRevocationStore()
		defer mem.Close()
		revocations = mem
	}

	svc := newServices(pool, cfg, mailSender(cfg, logger), revocations, logger)
	if err := ensureAdmin(ctx, svc.identity, cfg, logger); err != nil {
		return err
	}

	e, api := newEcho(cfg, logger, revocations)
	e.GET("/health/db", db.HealthHandler(pool, checks...))
	svc.registerRoutes(e, api)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := svc.notices.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("pending notifications abandoned")
	}
	logger.Info().Msg("server stopped")
	return nil
}
