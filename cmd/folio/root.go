package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/oraraka-deko/folio/folio"
	"github.com/oraraka-deko/folio/internal/config"
	"github.com/oraraka-deko/folio/internal/logger"
)

// app carries the persistent flags and what PersistentPreRunE builds from
// them.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	redisAddr  string
	cacheTTL   time.Duration

	out    io.Writer
	errOut io.Writer

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "folio",
		Short:         "AI résumé-to-portfolio toolkit",
		Long:          "folio parses résumé text into a structured profile, enhances it, and generates portfolio content using OpenAI, Anthropic or Google models.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: json or pretty")
	pf.StringVar(&a.redisAddr, "redis-addr", "", "Cache responses in Redis at this address")
	pf.DurationVar(&a.cacheTTL, "cache-ttl", 0, "Response cache TTL (enables the in-memory cache when no cache is configured)")

	root.AddCommand(
		newProvidersCmd(a),
		newParseCmd(a),
		newEnhanceCmd(a),
		newGenerateCmd(a),
		newCaptionCmd(a),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Logger.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logger.Format = a.logFormat
	}
	if a.redisAddr != "" {
		cfg.Cache.Type = "redis"
		cfg.Cache.Redis.Address = a.redisAddr
	}
	if cmd.Flags().Changed("cache-ttl") {
		cfg.Cache.TTL = a.cacheTTL.String()
		if cfg.Cache.Type == "" || cfg.Cache.Type == "none" {
			cfg.Cache.Type = "memory"
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.log = logger.Init(cfg.Logger, a.errOut)
	return nil
}

// orchestrator builds the orchestrator and its cache. The returned func
// releases the cache connection.
func (a *app) orchestrator(ctx context.Context) (*folio.Orchestrator, func(), error) {
	fc, err := a.cfg.Folio()
	if err != nil {
		return nil, nil, err
	}
	fc.Logger = a.log

	cache, closeCache, err := a.cache(ctx)
	if err != nil {
		return nil, nil, err
	}
	fc.Cache = cache

	orch, err := folio.NewOrchestrator(fc)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return orch, closeCache, nil
}

func (a *app) cache(ctx context.Context) (folio.ResponseCache, func(), error) {
	ttl := a.cfg.CacheTTL()
	switch a.cfg.Cache.Type {
	case "memory":
		return folio.NewMemoryCache(ttl, a.cfg.Cache.MaxSize), func() {}, nil
	case "redis":
		rc := a.cfg.Cache.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Address,
			Password: rc.Password,
			DB:       rc.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", rc.Address, err)
		}
		a.log.Debug().Str("address", rc.Address).Dur("ttl", ttl).Msg("using redis response cache")
		return folio.NewRedisCache(client, rc.KeyPrefix, ttl), func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

// writeJSON writes v indented to path, or to the command output when path is
// empty.
func (a *app) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := a.out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	a.log.Info().Str("path", path).Msg("wrote output")
	return nil
}
