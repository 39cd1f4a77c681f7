package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/kufarwatch/internal/config"
	"github.com/gauthierbraillon/kufarwatch/internal/display"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
	"github.com/gauthierbraillon/kufarwatch/internal/prefs"
	"github.com/gauthierbraillon/kufarwatch/pkg/browser"
)

// newBrandsCmd creates the brands subcommand.
func newBrandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List the brands that can be searched by key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tLABEL\tKEYWORDS")
			for _, b := range cfg.Brands.SortedByLabel() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Key, b.Label, strings.Join(b.Keywords, ", "))
			}
			return w.Flush()
		},
	}
}

// newPrefsCmd creates the prefs subcommand.
func newPrefsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show your saved preferences",
		Long:  "Show or change the display language, display currency and search depth saved for --user.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.openStores(cmd.Context()); err != nil {
				return err
			}

			p, err := prefs.LoadOrDefault(cmd.Context(), a.prefs, flags.user, a.defaultPrefs())
			if err != nil {
				return err
			}

			printPrefs(cmd, flags.user, p)
			return nil
		},
	}

	cmd.AddCommand(newPrefsSetCmd(flags))
	return cmd
}

func newPrefsSetCmd(flags *globalFlags) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save preferences from --lang, --currency and --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.openStores(ctx); err != nil {
				return err
			}

			p, err := a.userPrefs(ctx, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				p.DaysBack = days
			}

			if _, err := display.ParseLanguage(p.Language); err != nil {
				return err
			}
			if !a.cfg.Rates.Supports(p.Currency) {
				return fmt.Errorf("%w: %s (known: %s)", config.ErrUnknownCurrency, p.Currency, strings.Join(a.cfg.Rates.Currencies(), ", "))
			}

			if err := a.prefs.Save(ctx, flags.user, p); err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}

			saved, err := a.prefs.Load(ctx, flags.user)
			if err != nil {
				return err
			}
			printPrefs(cmd, flags.user, saved)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Default lookback window in days")
	return cmd
}

func printPrefs(cmd *cobra.Command, user string, p prefs.Preferences) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User: %s\n", user)
	fmt.Fprintf(out, "Language: %s\n", p.Language)
	fmt.Fprintf(out, "Currency: %s\n", p.Currency)
	fmt.Fprintf(out, "Days back: %d\n", p.DaysBack)
}

// newOpenCmd creates the open subcommand.
func newOpenCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "open <listing-id>",
		Short: "Open a listing in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("listing id must not be empty")
			}

			link := kufar.ItemURL(id)
			if printOnly {
				fmt.Fprintln(cmd.OutOrStdout(), link)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", link)
			if err := browser.Open(link); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Could not open browser. Please visit:\n%s\n", link)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the listing link instead of opening it")
	return cmd
}

// newConfigCmd creates the config subcommand.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long:  "Show the configuration kufarwatch resolved from the environment and .env file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config directory: %s\n", cfg.ConfigDir)
			fmt.Fprintf(out, "Endpoints: %s\n", strings.Join(cfg.Endpoints, ", "))
			fmt.Fprintf(out, "Request timeout: %s\n", cfg.RequestTimeout)
			fmt.Fprintf(out, "Search window: %d days (recent %d, stats %d, week %d)\n",
				cfg.DaysBack, cfg.RecentDays, cfg.StatsDays, cfg.StatsWeekDays)
			fmt.Fprintf(out, "Brands: %d\n", cfg.Brands.Len())
			fmt.Fprintf(out, "Currencies: %s\n", strings.Join(cfg.Rates.Currencies(), ", "))

			backend := "files in " + cfg.ConfigDir
			if cfg.PostgresDSN != "" {
				backend = "postgres"
			}
			fmt.Fprintf(out, "Preferences: %s\n", backend)
			return nil
		},
	}
}
