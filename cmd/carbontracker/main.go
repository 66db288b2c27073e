package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/climatelabs/carbontracker/internal/dashboard"
	"github.com/climatelabs/carbontracker/internal/emissions"
	"github.com/climatelabs/carbontracker/internal/exporter"
	"github.com/climatelabs/carbontracker/internal/metrics"
	"github.com/climatelabs/carbontracker/internal/worldbank"
)

const (
	defaultListenAddr     = ":8080"
	defaultTableCacheTTL  = 6 * time.Hour
	defaultEmptyResultTTL = 5 * time.Minute
	defaultTopLimit       = 10
)

var (
	verbose           bool
	indicator         string
	sourceID          int
	perPage           int
	excludeAggregates bool
	listenAddr        string
	cacheTTL          time.Duration
	emptyResultTTL    time.Duration
	refreshInterval   time.Duration
	outputDir         string
	year              int
	limit             int

	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "carbontracker",
	Short: "Per-capita CO2 emissions dashboard",
	Long: `Carbontracker builds a per-capita CO2 emissions table from the World Bank
open data API and serves it as a dashboard, JSON API and CLI reports.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("carbontracker %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the emissions dashboard and JSON API (service mode)",
	Long: `Serve runs the HTTP server: the embedded dashboard page, the JSON API,
a health endpoint and Prometheus metrics. An optional background refresher
rebuilds the emissions table on an interval.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger(verbose)

		provider, err := newProvider(log)
		if err != nil {
			log.Error("failed to create provider", "error", err)
			os.Exit(1)
		}

		server, err := dashboard.NewServer(&dashboard.ServerConfig{
			Logger:   log,
			Provider: provider,
		})
		if err != nil {
			log.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		listener, err := net.Listen("tcp", listenAddr)
		if err != nil {
			log.Error("failed to listen", "error", err)
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

		if refreshInterval > 0 {
			refresher, err := emissions.NewRefresher(&emissions.RefresherConfig{
				Logger:   log,
				Provider: provider,
				Interval: refreshInterval,
			})
			if err != nil {
				log.Error("failed to create refresher", "error", err)
				os.Exit(1)
			}

			// Start the refresher in the background.
			go func() {
				if err := refresher.Run(ctx); err != nil {
					log.Error("failed to run refresher", "error", err)
				}
			}()
		}

		log.Info("listening", "address", listener.Addr().String())
		if err := server.Serve(ctx, listener); err != nil {
			log.Error("failed to serve", "error", err)
			os.Exit(1)
		}
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the emissions table once and print a summary",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger(verbose)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		provider, err := newProvider(log)
		if err != nil {
			log.Error("failed to create provider", "error", err)
			os.Exit(1)
		}

		table, err := provider.GetTable(ctx)
		if err != nil {
			log.Error("failed to build emissions table", "error", err)
			os.Exit(1)
		}

		fmt.Println("Indicator:", indicator)
		fmt.Println("Rows:", table.Len())
		if minYear, maxYear, ok := table.YearBounds(); ok {
			fmt.Printf("Years: %d-%d\n", minYear, maxYear)
		}

		if outputDir != "" {
			csvExporter, err := exporter.NewCSVExporter(log, "emissions", outputDir)
			if err != nil {
				log.Error("failed to create CSV exporter", "error", err)
				os.Exit(1)
			}
			defer csvExporter.Close()

			if err := csvExporter.WriteRecords(ctx, table.Records()); err != nil {
				log.Error("failed to write CSV", "error", err)
				os.Exit(1)
			}
			fmt.Println("CSV:", csvExporter.GetFilename())
		}
	},
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the top emitting countries for a year",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger(verbose)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		provider, err := newProvider(log)
		if err != nil {
			log.Error("failed to create provider", "error", err)
			os.Exit(1)
		}

		table, err := provider.GetTable(ctx)
		if err != nil {
			log.Error("failed to build emissions table", "error", err)
			os.Exit(1)
		}

		reportYear := year
		if reportYear == 0 {
			_, maxYear, ok := table.YearBounds()
			if !ok {
				log.Error("no years available in emissions table")
				os.Exit(1)
			}
			reportYear = maxYear
		}

		records := table.YearSlice(reportYear)
		printTopEmitters(emissions.TopN(records, limit), emissions.Summarize(records), reportYear)
	},
}

func newProvider(log *slog.Logger) (emissions.Provider, error) {
	return emissions.NewProvider(&emissions.ProviderConfig{
		Logger:         log,
		Source:         worldbank.NewClient(log),
		Indicator:      indicator,
		SourceID:       sourceID,
		PerPage:        perPage,
		TableCacheTTL:  cacheTTL,
		EmptyResultTTL: emptyResultTTL,
		Normalize: emissions.NormalizeConfig{
			ExcludeAggregates: excludeAggregates,
		},
	})
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func printTopEmitters(records []emissions.Record, summary emissions.Summary, year int) {
	fmt.Println("Year:", year)
	fmt.Println("Countries:", summary.Count)
	if summary.HasMean {
		fmt.Printf("Mean: %.2f\n", summary.Mean)
	}
	fmt.Println("* Values are in metric tons of CO2 per capita")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{
		"Rank",
		"Country",
		"Code",
		"CO2 per capita\n(t)",
	})

	for i, s := range records {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			s.CountryName,
			s.CountryCode,
			fmt.Sprintf("%.2f", s.Value),
		})
	}
	table.Render()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().StringVar(&indicator, "indicator", emissions.DefaultIndicator, "World Bank indicator code to fetch")
	rootCmd.PersistentFlags().IntVar(&sourceID, "source", emissions.DefaultSourceID, "World Bank source database ID")
	rootCmd.PersistentFlags().IntVar(&perPage, "per-page", worldbank.DefaultPerPage, "Observations requested per page")
	rootCmd.PersistentFlags().BoolVar(&excludeAggregates, "exclude-aggregates", false, "Drop regional and income-group aggregate rows")

	serveCmd.Flags().StringVar(&listenAddr, "listen-addr", defaultListenAddr, "Address to listen on")
	serveCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", defaultTableCacheTTL, "How long a built emissions table stays cached")
	serveCmd.Flags().DurationVar(&emptyResultTTL, "empty-result-ttl", defaultEmptyResultTTL, "How long an empty upstream result stays cached")
	serveCmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 0, "Background table refresh interval (0 disables)")

	fetchCmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write a timestamped CSV export (disabled when empty)")

	topCmd.Flags().IntVar(&year, "year", 0, "Report year (0 selects the latest year)")
	topCmd.Flags().IntVar(&limit, "limit", defaultTopLimit, "Number of countries to list")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(topCmd)
}

func main() {
	_ = godotenv.Load()

	// Add version command last so it appears after auto-generated commands
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
