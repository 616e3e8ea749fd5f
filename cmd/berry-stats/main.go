// Command berry-stats serves growth time statistics over the PokeAPI berry
// catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sternrassler/berry-stats/pkg/berries"
	"github.com/Sternrassler/berry-stats/pkg/cache"
	"github.com/Sternrassler/berry-stats/pkg/charts"
	"github.com/Sternrassler/berry-stats/pkg/client"
	"github.com/Sternrassler/berry-stats/pkg/config"
	"github.com/Sternrassler/berry-stats/pkg/logging"
	"github.com/Sternrassler/berry-stats/pkg/pagination"
	"github.com/Sternrassler/berry-stats/pkg/server"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:          "berry-stats",
		Short:        "Serve growth time statistics for the PokeAPI berry catalog",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("api-base-url", client.DefaultBaseURL, "PokeAPI root URL")
	root.PersistentFlags().Int("max-concurrency", 5, "maximum concurrent detail requests")
	root.PersistentFlags().Int("page-size", 0, "listing page size (0 = server default)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-pretty", false, "human-readable console logs")
	root.Flags().String("listen-addr", ":8080", "HTTP listen address")
	root.Flags().String("redis-addr", "", "Redis address for the response cache (empty disables caching)")

	bind(v, root.PersistentFlags().Lookup, map[string]string{
		"api.base_url":        "api-base-url",
		"api.max_concurrency": "max-concurrency",
		"api.page_size":       "page-size",
		"log.level":           "log-level",
		"log.pretty":          "log-pretty",
	})
	bind(v, root.Flags().Lookup, map[string]string{
		"listen_addr": "listen-addr",
		"redis.addr":  "redis-addr",
	})

	root.AddCommand(newStatsCmd(v, &cfgFile))
	return root
}

// newStatsCmd computes the summary once and prints it as JSON.
func newStatsCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Fetch the catalog once and print the summary as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *cfgFile)
			if err != nil {
				return err
			}
			return printStats(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func bind(v *viper.Viper, lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, flag := range keys {
		cobra.CheckErr(v.BindPFlag(key, lookup(flag)))
	}
}

func loadConfig(v *viper.Viper, cfgFile string) (config.Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})
	return cfg, nil
}

// newService builds the upstream client and the statistics service. The
// caller owns the returned client and must close it.
func newService(cfg config.Config) (*client.Client, *berries.Service, error) {
	apiClient, err := client.New(client.Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create pokeapi client: %w", err)
	}

	service := berries.NewService(apiClient, berries.Config{
		PageSize: cfg.API.PageSize,
		Batch: pagination.Config{
			MaxConcurrency: cfg.API.MaxConcurrency,
			Timeout:        cfg.API.Timeout,
		},
	})
	return apiClient, service, nil
}

func serve(cfg config.Config) error {
	logger := logging.NewLogger(logging.ComponentServer)

	apiClient, service, err := newService(cfg)
	if err != nil {
		return err
	}
	defer apiClient.Close()

	deps := server.Dependencies{
		Berries:  service,
		Renderer: charts.NewPNGRenderer(),
		CacheTTL: cfg.Cache.TTL,
	}

	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		manager := cache.NewManager(rdb)
		if err := manager.Ping(context.Background()); err != nil {
			// Requests still work without the cache; /ready reports it.
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
		}
		deps.Cache = manager
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Cache.TTL).Msg("response cache enabled")
	}

	logger.Info().
		Str("api_base_url", cfg.API.BaseURL).
		Str("user_agent", cfg.API.UserAgent).
		Int("max_concurrency", cfg.API.MaxConcurrency).
		Msg("berry-stats configured")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.ListenAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Dependencies:    deps,
	})
	return api.Start()
}

func printStats(ctx context.Context, cfg config.Config, out io.Writer) error {
	apiClient, service, err := newService(cfg)
	if err != nil {
		return err
	}
	defer apiClient.Close()

	summary, err := service.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("compute statistics: %w", err)
	}

	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}
