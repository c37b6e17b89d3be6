package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"marketsim/internal/autoplay"
	"marketsim/internal/catalog"
	"marketsim/internal/config"
	"marketsim/internal/game"
	"marketsim/internal/tui"
)

type rootFlags struct {
	catalogFile string
	seed        int64
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadEngineFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	flags := rootFlags{catalogFile: cfg.CatalogFile, seed: cfg.Seed}

	root := &cobra.Command{
		Use:          "marketsim",
		Short:        "Run a corner shop one day at a time",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.catalogFile, "catalog", flags.catalogFile, "YAML catalog file (built-in catalog when empty)")
	root.PersistentFlags().Int64Var(&flags.seed, "seed", flags.seed, "random seed (0 = time based)")

	root.AddCommand(
		newPlayCmd(&flags, cfg),
		newAutoplayCmd(&flags, cfg),
		newCatalogCmd(&flags),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newPlayCmd(flags *rootFlags, cfg config.EngineConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("play needs an interactive terminal; try `marketsim autoplay`")
			}
			cat, err := catalog.Load(flags.catalogFile)
			if err != nil {
				return err
			}
			svc := game.NewService(game.Options{
				Catalog:     cat,
				Rand:        game.NewRand(flags.seed),
				SettleDelay: cfg.SettleDelay,
				Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			return tui.Run(svc)
		},
	}
}

func newAutoplayCmd(flags *rootFlags, cfg config.EngineConfig) *cobra.Command {
	var (
		days     int
		spend    float64
		realTime bool
		cheat    bool
	)
	cmd := &cobra.Command{
		Use:   "autoplay",
		Short: "Let a scripted shopkeeper play and print each day's report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(flags.catalogFile)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
			opts := game.Options{
				Catalog:   cat,
				Rand:      game.NewRand(flags.seed),
				Scheduler: game.ImmediateScheduler{},
				Logger:    logger,
			}
			if realTime {
				opts.Scheduler = game.TimerScheduler{}
				opts.SettleDelay = cfg.SettleDelay
			}
			svc := game.NewService(opts)
			if cheat {
				svc.ApplyCheatCode(game.CheatCodeInfiniteMoney)
			}

			printHeader(fmt.Sprintf("Autoplay: %d days, %d products, spending %.0f%% of cash each morning", days, cat.Len(), spend*100))
			player := autoplay.New(svc, autoplay.Options{SpendShare: spend, Logger: logger})
			start := time.Now()
			sum, err := player.Run(cmd.Context(), days, renderDayResult)
			if err != nil {
				return err
			}
			renderSummary(sum, time.Since(start))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 10, "number of days to play")
	cmd.Flags().Float64Var(&spend, "spend", autoplay.DefaultSpendShare, "share of cash spent restocking each day (0-1]")
	cmd.Flags().BoolVar(&realTime, "real-time", false, "wait MARKETSIM_SETTLE_DELAY between closing and the report")
	cmd.Flags().BoolVar(&cheat, "infinite-money", false, "play with the infinite money cheat")
	return cmd
}

func newCatalogCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the products on offer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(flags.catalogFile)
			if err != nil {
				return err
			}
			renderCatalog(cat)
			return nil
		},
	}
}
