package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/kufarwatch/internal/aggregator"
	"github.com/gauthierbraillon/kufarwatch/internal/config"
	"github.com/gauthierbraillon/kufarwatch/internal/display"
	"github.com/gauthierbraillon/kufarwatch/internal/kufar"
	"github.com/gauthierbraillon/kufarwatch/internal/progress"
)

// query is what a user asked for: a catalog brand or free text.
type query struct {
	label    string
	keywords []string
}

// resolveQuery maps a single brand key to its catalog entry. Anything else
// is searched as free text labelled with itself.
func resolveQuery(brands config.Catalog, args []string) (query, error) {
	if len(args) == 1 {
		if b, ok := brands.Lookup(args[0]); ok {
			return query{label: b.Label, keywords: b.Keywords}, nil
		}
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return query{}, errors.New("search text must not be empty")
	}
	return query{label: text, keywords: []string{text}}, nil
}

// runWithProgress runs search while an indicator polls for its completion.
// The indicator only sees the done channel.
func runWithProgress[T any](ctx context.Context, out io.Writer, flags *globalFlags, f *display.Formatter, label string, search func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	var result T
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		var err error
		result, err = search(gctx)
		return err
	})

	if !flags.noProgress {
		ind := progress.New(out, label,
			progress.WithPrinter(f.Printer()),
			progress.WithFacts(display.Facts(), progress.DefaultFactEvery),
		)
		g.Go(func() error {
			return ind.Run(gctx, done)
		})
	}

	if err := g.Wait(); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// printFallbackLink points the user at the website when a search could not complete.
func printFallbackLink(out io.Writer, f *display.Formatter, q query) {
	fmt.Fprintln(out, f.Printer().Sprintf("Search failed. Try the website:"))
	fmt.Fprintln(out, kufar.WebSearchURL(q.keywords[0]))
}

// newSearchCmd creates the search subcommand.
func newSearchCmd(flags *globalFlags) *cobra.Command {
	var days int
	var page int

	cmd := &cobra.Command{
		Use:   "search <brand-key | text...>",
		Short: "Search listings for a brand or free text",
		Long:  "Search every keyword variant of a brand (see 'kufarwatch brands') or a free-text query, newest first.",
		Args:  cobra.MinimumNArgs(1),
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

			q, err := resolveQuery(a.cfg.Brands, args)
			if err != nil {
				return err
			}

			p, err := a.userPrefs(ctx, flags)
			if err != nil {
				return err
			}
			if days > 0 {
				p.DaysBack = days
			}

			f, err := a.formatter(p)
			if err != nil {
				return err
			}

			listings, err := runWithProgress(ctx, cmd.ErrOrStderr(), flags, f, q.label,
				func(ctx context.Context) ([]kufar.Listing, error) {
					return a.engine.Search(ctx, q.keywords, p.DaysBack)
				})
			if err != nil {
				printFallbackLink(cmd.OutOrStdout(), f, q)
				return err
			}

			a.logger.Info("search finished", "query", q.label, "listings", len(listings), "days", p.DaysBack)
			fmt.Fprint(cmd.OutOrStdout(), f.FormatPage(display.Paginate(listings, page, a.cfg.ItemsPerPage)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Lookback window in days (default: saved preference)")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show")

	return cmd
}

// newRecentCmd creates the recent subcommand.
func newRecentCmd(flags *globalFlags) *cobra.Command {
	var page int
	var onlyNew bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the latest listings across all brands",
		Long:  "Scan every configured brand over the recent window and show the merged listings, labelled by brand.",
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
			if onlyNew && a.seen == nil {
				return errors.New("--only-new needs a database: set PG_DSN")
			}

			p, err := a.userPrefs(ctx, flags)
			if err != nil {
				return err
			}
			f, err := a.formatter(p)
			if err != nil {
				return err
			}

			listings, err := runWithProgress(ctx, cmd.ErrOrStderr(), flags, f, "recent",
				func(ctx context.Context) ([]kufar.Listing, error) {
					return a.engine.Recent(ctx)
				})
			if err != nil {
				return err
			}

			if onlyNew {
				if listings, err = a.onlyUnseen(ctx, flags.user, listings); err != nil {
					return err
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), f.FormatPage(display.Paginate(listings, page, a.cfg.ItemsPerPage)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show")
	cmd.Flags().BoolVar(&onlyNew, "only-new", false, "Hide listings already shown to this user")

	return cmd
}

// onlyUnseen drops listings already delivered to user and records the rest.
func (a *app) onlyUnseen(ctx context.Context, user string, listings []kufar.Listing) ([]kufar.Listing, error) {
	purged, err := a.seen.Purge(ctx)
	if err != nil {
		return nil, err
	}

	unseen, err := a.seen.FilterUnseen(ctx, user, listings)
	if err != nil {
		return nil, err
	}

	if err := a.seen.MarkSeen(ctx, user, unseen); err != nil {
		return nil, err
	}

	a.logger.Info("filtered seen listings", "user", user, "total", len(listings), "new", len(unseen), "purged", purged)
	return unseen, nil
}

// newStatsCmd creates the stats subcommand.
func newStatsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <brand-key | text...>",
		Short: "Show listing counts and prices for a brand",
		Long:  "Summarize a brand's listings over the statistics window: totals, this week's count and average, minimum and maximum price.",
		Args:  cobra.MinimumNArgs(1),
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

			q, err := resolveQuery(a.cfg.Brands, args)
			if err != nil {
				return err
			}

			p, err := a.userPrefs(ctx, flags)
			if err != nil {
				return err
			}
			f, err := a.formatter(p)
			if err != nil {
				return err
			}

			stats, err := runWithProgress(ctx, cmd.ErrOrStderr(), flags, f, q.label,
				func(ctx context.Context) (aggregator.Stats, error) {
					return a.engine.Stats(ctx, q.keywords, p.Currency)
				})
			if err != nil {
				printFallbackLink(cmd.OutOrStdout(), f, q)
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), f.FormatStats(q.label, a.cfg.StatsDays, stats))
			return nil
		},
	}

	return cmd
}
