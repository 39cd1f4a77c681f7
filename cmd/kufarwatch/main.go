// Package main provides the kufarwatch CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/kufarwatch/internal/aggregator"
	"github.com/gauthierbraillon/kufarwatch/internal/config"
	"github.com/gauthierbraillon/kufarwatch/internal/display"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
	"github.com/gauthierbraillon/kufarwatch/internal/prefs"
	"github.com/gauthierbraillon/kufarwatch/internal/storage"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by go install.
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	user       string
	lang       string
	currency   string
	timeout    time.Duration
	noProgress bool
}

// newRootCmd creates the root command for kufarwatch CLI.
func newRootCmd() *cobra.Command {
	info, _ := debug.ReadBuildInfo()
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "kufarwatch",
		Short:         "Watch kufar.by for new listings of your favourite brands",
		Long:          "Kufarwatch searches kufar.by for brand listings across keyword variants, merges and deduplicates them, and shows recent activity and price statistics.",
		Version:       resolveVersion(version, info),
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("kufarwatch version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.user, "user", "u", defaultUser(), "User whose preferences apply")
	pf.StringVar(&flags.lang, "lang", "", "Display language (ru, en); overrides saved preferences")
	pf.StringVarP(&flags.currency, "currency", "c", "", "Display currency (BYN, USD, EUR, RUB); overrides saved preferences")
	pf.DurationVar(&flags.timeout, "timeout", 2*time.Minute, "Give up on a search after this long")
	pf.BoolVar(&flags.noProgress, "no-progress", false, "Do not show the progress indicator")

	rootCmd.AddCommand(newSearchCmd(flags))
	rootCmd.AddCommand(newRecentCmd(flags))
	rootCmd.AddCommand(newStatsCmd(flags))
	rootCmd.AddCommand(newBrandsCmd())
	rootCmd.AddCommand(newPrefsCmd(flags))
	rootCmd.AddCommand(newOpenCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// app holds the collaborators of one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *aggregator.Engine

	prefs prefs.Store
	seen  *storage.SeenStore
	pool  *pgxpool.Pool
}

// newApp loads configuration and wires the search engine. Stores are opened
// separately by the commands that need them.
func newApp(stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(stderr, cfg).With("run_id", uuid.NewString())

	client := kufar.NewClient(
		kufar.WithEndpoints(cfg.Endpoints...),
		kufar.WithTimeout(cfg.RequestTimeout),
		kufar.WithSearchParams(cfg.Search),
		kufar.WithUSDRate(cfg.USDToBYN),
		kufar.WithLogger(logger),
	)

	engine := aggregator.New(client, cfg.Brands, cfg.Rates,
		aggregator.WithLogger(logger),
		aggregator.WithWindows(aggregator.Windows{
			RecentDays: cfg.RecentDays,
			StatsDays:  cfg.StatsDays,
			WeekDays:   cfg.StatsWeekDays,
		}),
	)

	return &app{cfg: cfg, logger: logger, engine: engine}, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openStores opens the preference store and, with PG_DSN set, the seen-listings store.
func (a *app) openStores(ctx context.Context) error {
	if a.cfg.PostgresDSN == "" {
		a.prefs = prefs.NewFileStore(a.cfg.ConfigDir)
		return nil
	}

	pool, err := storage.Open(ctx, a.cfg.PostgresDSN)
	if err != nil {
		return err
	}
	a.pool = pool

	pgPrefs := prefs.NewPostgresStore(pool)
	if err := pgPrefs.EnsureSchema(ctx); err != nil {
		return err
	}
	a.prefs = pgPrefs

	a.seen = storage.NewSeenStore(pool)
	if err := a.seen.EnsureSchema(ctx); err != nil {
		return err
	}

	a.logger.Debug("postgres stores ready")
	return nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) defaultPrefs() prefs.Preferences {
	return prefs.Preferences{
		Language: a.cfg.DefaultLanguage,
		Currency: a.cfg.DefaultCurrency,
		DaysBack: a.cfg.DaysBack,
	}
}

// userPrefs returns the saved preferences of the user with flag overrides applied.
func (a *app) userPrefs(ctx context.Context, flags *globalFlags) (prefs.Preferences, error) {
	p, err := prefs.LoadOrDefault(ctx, a.prefs, flags.user, a.defaultPrefs())
	if err != nil {
		return prefs.Preferences{}, err
	}
	if flags.lang != "" {
		p.Language = flags.lang
	}
	if flags.currency != "" {
		p.Currency = flags.currency
	}
	return p, nil
}

func (a *app) formatter(p prefs.Preferences) (*display.Formatter, error) {
	lang, err := display.ParseLanguage(p.Language)
	if err != nil {
		return nil, err
	}
	return display.NewFormatter(lang, p.Currency, a.cfg.Rates)
}
