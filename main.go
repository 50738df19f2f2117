package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/delatour/stratgen/chains"
	"github.com/delatour/stratgen/config"
	"github.com/delatour/stratgen/logging"
	"github.com/delatour/stratgen/models"
	"github.com/delatour/stratgen/positions"
	"github.com/delatour/stratgen/probability"
	"github.com/delatour/stratgen/runner"
	"github.com/delatour/stratgen/scoring"
	"github.com/delatour/stratgen/slack"
	"github.com/delatour/stratgen/store"
)

var (
	cfgPath string
	debug   bool
)

func main() {
	// A .env file is optional; real environments set variables directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "stratgen",
		Short: "Generate, evaluate and rank multi-leg option strategies",
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(generateCmd(), showCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Run the full generation, evaluation and ranking pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			options, err := loadChain(cfg)
			if err != nil {
				return err
			}
			if err := fillScenarioSigmas(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Generation.Workers <= 0 {
				cfg.Generation.Workers = runner.SuggestWorkers()
			}
			go runner.MonitorCPU(ctx, 10*time.Second)

			handle := runner.Start(ctx, func(ctx context.Context) (*runner.Result, error) {
				records, mixture, err := positions.Generate(ctx, options, cfg.Generation)
				if err != nil {
					return nil, err
				}
				opts := cfg.Scoring
				opts.Weights = mergeWeights(opts.Weights, cfg.WeightSets)
				ranking, err := scoring.MultiScoreAndRank(records, cfg.WeightSets, opts)
				if err != nil {
					return nil, err
				}
				return &runner.Result{Ranking: ranking, Mixture: mixture}, nil
			})

			res, err := handle.Wait(ctx)
			if err != nil {
				return err
			}

			doc := &store.Document{
				Metadata: store.Metadata{
					Underlying: cfg.Underlying,
					Params: map[string]string{
						"max_legs": fmt.Sprint(cfg.Generation.MaxLegs),
						"options":  fmt.Sprint(len(options)),
					},
				},
				Results: res.Ranking.Flat(),
			}
			if res.Ranking.IsMulti() {
				doc.Multi = res.Ranking
			}
			if err := store.Save(cfg.Output, doc); err != nil {
				return err
			}

			printRanking(doc.Results, cfg.Scoring.TopN)
			notify(cfg, doc.Results)
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var topN int
	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Display a saved ranking",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			path := cfg.Output
			if len(args) == 1 {
				path = args[0]
			}
			doc, err := store.Load(path)
			if err != nil {
				return err
			}
			fmt.Printf("%s, saved %s, %d strategies\n",
				doc.Metadata.Underlying, doc.Metadata.SavedAt.Format(time.RFC3339), len(doc.Results))
			printRanking(doc.Results, topN)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topN, "top", "n", 20, "rows to display")
	return cmd
}

func setup() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	logging.Setup(cfg.Logging)
	return cfg, nil
}

func loadChain(cfg *config.Config) ([]*models.OptionLeg, error) {
	if cfg.ChainFile != "" {
		data, err := os.ReadFile(cfg.ChainFile)
		if err != nil {
			return nil, fmt.Errorf("read chain %s: %w", cfg.ChainFile, err)
		}
		doc, err := chains.Parse(data)
		if err != nil {
			return nil, err
		}
		if doc.Underlying != "" {
			cfg.Underlying = doc.Underlying
		}
		return doc.Options, nil
	}
	if cfg.Simulate != nil {
		log.Info().Float64("underlying", cfg.Simulate.UnderlyingPrice).
			Msg("no chain file configured, simulating chain")
		return chains.Simulate(*cfg.Simulate)
	}
	return nil, fmt.Errorf("no chain_file and no simulate section configured")
}

// fillScenarioSigmas estimates a price deviation from realized volatility for
// scenarios that leave sigma blank, when a history file is configured.
func fillScenarioSigmas(cfg *config.Config) error {
	if cfg.HistoryFile == "" {
		return nil
	}
	data, err := os.ReadFile(cfg.HistoryFile)
	if err != nil {
		return fmt.Errorf("read history %s: %w", cfg.HistoryFile, err)
	}
	bars, err := chains.ParseHistory(data)
	if err != nil {
		return err
	}
	for i := range cfg.Generation.Scenarios {
		sc := &cfg.Generation.Scenarios[i]
		if sc.Sigma > 0 {
			continue
		}
		sc.Sigma = probability.SuggestSigma(bars, sc.Center, cfg.HistoryHorizon)
		log.Info().Float64("price", sc.Center).Float64("sigma", sc.Sigma).
			Msg("scenario sigma estimated from history")
	}
	return nil
}

// mergeWeights keeps single-set runs working when only weight_sets is given.
func mergeWeights(weights map[string]float64, sets []map[string]float64) map[string]float64 {
	if weights == nil && len(sets) == 1 {
		return sets[0]
	}
	return weights
}

func printRanking(records []*models.StrategyRecord, topN int) {
	if topN <= 0 || topN > len(records) {
		topN = len(records)
	}
	fmt.Printf("%-4s %-40s %8s %9s %9s %9s %9s\n",
		"#", "strategy", "score", "premium", "avg pnl", "max loss", "max win")
	for _, r := range records[:topN] {
		fmt.Printf("%-4d %-40s %8.4f %9.2f %9.2f %9.2f %9.2f\n",
			r.Rank, r.Name, r.Score, r.Premium, r.AveragePnL, r.MaxLoss, r.MaxProfit)
	}
}

func notify(cfg *config.Config, records []*models.StrategyRecord) {
	if !cfg.Slack.Enabled {
		return
	}
	token := os.Getenv("STRATGEN_SLACK_TOKEN")
	if token == "" {
		log.Warn().Msg("slack enabled but STRATGEN_SLACK_TOKEN not set")
		return
	}
	n := slack.NewNotifier(token, cfg.Slack.ChannelID)
	if err := n.PostRanking(cfg.Underlying, records, cfg.Slack.TopN); err != nil {
		log.Error().Err(err).Msg("slack notification failed")
	}
}
