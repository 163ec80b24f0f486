package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coolbeans/lawlinks/pkg/aliases"
	"github.com/coolbeans/lawlinks/pkg/cache"
	"github.com/coolbeans/lawlinks/pkg/citation"
	"github.com/coolbeans/lawlinks/pkg/config"
	"github.com/coolbeans/lawlinks/pkg/detect"
	"github.com/coolbeans/lawlinks/pkg/logging"
	"github.com/coolbeans/lawlinks/pkg/metrics"
	"github.com/coolbeans/lawlinks/pkg/morph"
	"github.com/coolbeans/lawlinks/pkg/server"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lawlinks",
		Short: "Russian legal citation detector",
		Long: `Lawlinks finds references to Russian laws in free text and resolves them
to structured links: law id, article, point and subpoint.

It recognizes citations such as "п. 2 ст. 7 НК РФ" or
"подпункты а-в пункта 1 статьи 5 Гражданского кодекса", resolving law names
through an alias mapping loaded from a JSON/YAML file or a SQLite table.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadConfig reads the file named by --config, or defaults plus environment
// overrides when the flag is empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// applyAliasFlags lets --aliases and --sqlite override the configured source.
func applyAliasFlags(cmd *cobra.Command, cfg *config.Config) {
	if path, _ := cmd.Flags().GetString("aliases"); path != "" {
		cfg.Aliases.Path = path
		cfg.Aliases.SQLiteDSN = ""
	}
	if dsn, _ := cmd.Flags().GetString("sqlite"); dsn != "" {
		cfg.Aliases.SQLiteDSN = dsn
	}
}

func addAliasFlags(cmd *cobra.Command) {
	cmd.Flags().String("aliases", "", "Alias mapping file (.json, .yaml); overrides aliases.path")
	cmd.Flags().String("sqlite", "", "SQLite database with the law_aliases table; overrides aliases.sqlite_dsn")
}

func aliasSource(cfg *config.Config) aliases.Source {
	return aliases.Source{
		Path:        cfg.Aliases.Path,
		SQLiteDSN:   cfg.Aliases.SQLiteDSN,
		SQLiteQuery: cfg.Aliases.SQLiteQuery,
	}
}

// newLemmatizer loads the morphological dictionary when enabled. A missing
// dictionary degrades to lowercase matching with a warning.
func newLemmatizer(cfg *config.Config, logger logging.Logger) *citation.Lemmatizer {
	if !cfg.Morph.Enabled {
		logger.Info("morphological normalization disabled")
		return citation.NewLemmatizer(nil)
	}
	start := time.Now()
	analyzer, err := morph.Load(cfg.Morph.DictPath)
	if err != nil {
		logger.Warn("morphological dictionary unavailable, falling back to lowercase matching",
			logging.Err(err),
		)
		return citation.NewLemmatizer(nil)
	}
	logger.Info("morphological dictionary loaded", logging.Duration("took", time.Since(start)))
	return citation.NewLemmatizer(analyzer)
}

// newDetector builds a detector and installs the index from the configured
// alias source.
func newDetector(ctx context.Context, cfg *config.Config, logger logging.Logger, opts ...detect.Option) (*detect.Detector, error) {
	opts = append([]detect.Option{
		detect.WithLemmatizer(newLemmatizer(cfg, logger)),
		detect.WithCompact(cfg.Aliases.Compact),
		detect.WithLookahead(cfg.Extract.Lookahead),
		detect.WithLogger(logger.Named("detect")),
	}, opts...)
	d := detect.New(opts...)

	src := aliasSource(cfg)
	entries, err := aliases.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases from %s: %w", src, err)
	}
	if err := d.BuildIndex(entries); err != nil {
		return nil, err
	}
	return d, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP detection service",
		Long: `Run the HTTP service exposing POST /detect, GET /health and GET /metrics.

Example:
  lawlinks serve --aliases law_aliases.json
  lawlinks serve --config lawlinks.yaml --addr :8978 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyAliasFlags(cmd, cfg)
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Aliases.Watch, _ = cmd.Flags().GetBool("watch")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := logging.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.NewNop()
			if cfg.Metrics.Enabled {
				m = metrics.New(cfg.Metrics.Namespace)
			}

			resultCache := cache.NewNop()
			if cfg.Cache.Enabled {
				pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				rc, err := cache.NewRedis(pingCtx, cache.RedisConfig{
					Addr:     cfg.Cache.Addr,
					Password: cfg.Cache.Password,
					DB:       cfg.Cache.DB,
					TTL:      cfg.Cache.TTL,
					Prefix:   cfg.Cache.Prefix,
				})
				cancel()
				if err != nil {
					logger.Warn("result cache disabled", logging.Err(err))
				} else {
					resultCache = rc
					logger.Info("result cache enabled", logging.String("addr", cfg.Cache.Addr))
				}
			}
			defer resultCache.Close()

			d, err := newDetector(ctx, cfg, logger,
				detect.WithCache(resultCache),
				detect.WithMetrics(m),
			)
			if err != nil {
				logger.Error("initialization failed", logging.Err(err))
				return err
			}

			if cfg.Aliases.Watch {
				w := aliases.NewWatcher(cfg.Aliases.Path, func(entries []citation.AliasEntry) {
					// BuildIndex logs failures and keeps the active index.
					_ = d.BuildIndex(entries)
				}, aliases.WithWatcherLogger(logger.Named("aliases")))
				if err := w.Start(); err != nil {
					return fmt.Errorf("failed to watch %s: %w", cfg.Aliases.Path, err)
				}
				defer w.Stop()
				logger.Info("watching alias file", logging.String("path", cfg.Aliases.Path))
			}

			srv := server.New(cfg.Server, d,
				server.WithLogger(logger.Named("http")),
				server.WithMetrics(m),
			)

			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			if err := srv.Stop(context.Background()); err != nil {
				return err
			}
			return <-errc
		},
	}

	addAliasFlags(cmd)
	cmd.Flags().String("addr", "", "Listen address; overrides server.addr")
	cmd.Flags().Bool("watch", false, "Rebuild the index when the alias file changes")

	return cmd
}

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract law links from a text file or stdin",
		Long: `Extract law links from text and print them as JSON.

Reads the named file, or standard input when no file is given.

Example:
  lawlinks extract --aliases law_aliases.json contract.txt
  echo "п. 1 ст. 5 ГК РФ" | lawlinks extract --aliases law_aliases.json
  lawlinks extract --aliases law_aliases.json contract.txt --stats`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyAliasFlags(cmd, cfg)
			showStats, _ := cmd.Flags().GetBool("stats")

			var text []byte
			if len(args) > 0 {
				text, err = os.ReadFile(args[0])
			} else {
				text, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			d, err := newDetector(cmd.Context(), cfg, logging.NewNopLogger())
			if err != nil {
				return err
			}
			links, err := d.Detect(cmd.Context(), string(text))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showStats {
				printStats(out, citation.CalculateStats(links))
				return nil
			}

			data, err := json.MarshalIndent(server.DetectResponse{Links: links}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}

	addAliasFlags(cmd)
	cmd.Flags().Bool("stats", false, "Print link statistics instead of the links")

	return cmd
}

func printStats(w io.Writer, stats citation.Stats) {
	fmt.Fprintf(w, "Link Statistics\n")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "Total links:   %d\n", stats.TotalLinks)
	fmt.Fprintf(w, "Distinct laws: %d\n", stats.DistinctLaws)

	if len(stats.ByGranularity) > 0 {
		fmt.Fprintf(w, "\nBy granularity:\n")
		for _, g := range []citation.Granularity{
			citation.GranularityLaw,
			citation.GranularityArticle,
			citation.GranularityPoint,
			citation.GranularitySubpoint,
		} {
			if n := stats.ByGranularity[string(g)]; n > 0 {
				fmt.Fprintf(w, "  %-10s %d\n", g, n)
			}
		}
	}

	if len(stats.ByLaw) > 0 {
		ids := make([]int, 0, len(stats.ByLaw))
		for id := range stats.ByLaw {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		fmt.Fprintf(w, "\nBy law:\n")
		for _, id := range ids {
			fmt.Fprintf(w, "  %-10d %d\n", id, stats.ByLaw[id])
		}
	}
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the alias index and print its statistics",
		Long: `Build the alias index from the configured source and report its size.
Useful for checking an alias file before deploying it.

Example:
  lawlinks index --aliases law_aliases.json
  lawlinks index --sqlite laws.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyAliasFlags(cmd, cfg)

			start := time.Now()
			d, err := newDetector(cmd.Context(), cfg, logging.NewNopLogger())
			if err != nil {
				return err
			}
			idx := d.Index()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Alias index: %s\n", aliasSource(cfg))
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "Laws:             %d\n", idx.Laws())
			fmt.Fprintf(out, "Exact keys:       %d\n", idx.Keys())
			fmt.Fprintf(out, "Compact keys:     %d\n", idx.CompactKeys())
			fmt.Fprintf(out, "Longest alias:    %d lemmas\n", idx.MaxAliasLen())
			fmt.Fprintf(out, "Build time:       %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	addAliasFlags(cmd)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lawlinks %s\n", version)
		},
	}
}
