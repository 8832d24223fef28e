package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trysite/internal/config"
	"trysite/internal/database"
	"trysite/internal/handlers"
	"trysite/internal/logging"
	"trysite/internal/metrics"
	"trysite/internal/services"
	"trysite/internal/web"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var rootCmd = &cobra.Command{
	Use:          "trysite",
	Short:        "Self-service demo sites: register, confirm by email, set up from a recipe",
	RunE:         runServer,
	SilenceUsage: true,
}

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List the setup recipes offered on the registration form",
	RunE:  listRecipes,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("listen", ":8080", "HTTP listen address")
	flags.String("db", "trysite.db", "SQLite database path")
	flags.String("recipes", "recipes", "directory holding *.recipe.yaml files")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Bool("log-json", false, "log in JSON format")

	bind := map[string]string{
		"LISTEN_ADDR":  "listen",
		"DB_PATH":      "db",
		"RECIPES_PATH": "recipes",
		"LOG_LEVEL":    "log-level",
		"LOG_JSON":     "log-json",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(recipesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})

	// 2. Init DB
	db, err := database.InitDB(cfg.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	clock := services.SystemClock{Zone: cfg.SiteTimeZone}
	m := metrics.New(prometheus.DefaultRegisterer)

	// 3. Restore shells from DB
	store := services.NewShellSettingsRepository(db)
	host := services.NewShellRegistry(clock, log)
	if err := host.Restore(cmd.Context(), store); err != nil {
		return fmt.Errorf("restore shells: %w", err)
	}

	// 4. Setup engine, mail, data protection
	catalog, err := services.NewRecipeCatalog(cfg.RecipesPath, cfg.RecipeCacheTTL, log)
	if err != nil {
		return err
	}
	defer catalog.Close()
	setup := services.NewSetupEngine(catalog, store, host, m, log)

	key, generated, err := cfg.ProtectionKeyBytes()
	if err != nil {
		return err
	}
	if generated {
		log.Warn().Msg("No protection key configured, confirmation links will not survive a restart")
	}
	protector, err := services.NewTimeLimitedProtector(key, services.PasswordProtectionPurpose, clock)
	if err != nil {
		return err
	}

	svc := services.NewTrySiteService(services.TrySiteDeps{
		Store:     store,
		Host:      host,
		Setup:     setup,
		Email:     newEmailSender(cfg, log),
		Protector: protector,
		Clock:     clock,
		Metrics:   m,
		Log:       log,
	}, services.TrySiteOptions{
		EmailToBcc:    cfg.EmailToBcc,
		DefaultSender: cfg.DefaultSender,
	})

	// 5. HTTP server & HTML renderer
	renderer, err := web.NewTemplateRenderer()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(middleware.Recover())
	e.Use(logging.RequestLogger(log))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	handlers.RegisterSiteRoutes(e, svc, log)
	handlers.RegisterTenantRoutes(e, host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("trysite starting")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newEmailSender(cfg *config.Config, log zerolog.Logger) services.EmailSender {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("No SMTP host configured, emails are written to the log")
		return services.NewLogSender(log)
	}
	return services.NewSMTPSender(services.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.DefaultSender,
	}, log)
}

func listRecipes(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	recipes, err := services.LoadRecipes(cfg.RecipesPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range recipes {
		if !r.IsSetupRecipe {
			continue
		}
		fmt.Fprintf(out, "%-20s %s\n", r.Name, r.Description)
	}
	return nil
}
