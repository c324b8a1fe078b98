// Package main — cmd/substratectl/main.go
//
// substratectl is the Sovereign Knowledge Substrate's maintenance
// entrypoint. It has two modes:
//
//	substratectl serve -config=/etc/substrate/substratectl.yaml
//	  Opens the store, starts the Prometheus metrics server, the operator
//	  Unix-socket admin surface, and a periodic pruning loop. Blocks until
//	  SIGINT/SIGTERM.
//
//	substratectl {status|snapshot|evaluate|prune|audit} -socket=/run/substrate/operator.sock
//	  Connects to a running daemon's operator socket, issues one command,
//	  prints the JSON response, and exits.
//
// Startup sequence (serve):
//  1. Load and validate config.
//  2. Initialise structured logger (zap).
//  3. Read the Secret Vault master key from SUBSTRATE_SHADOW_KEY (absent ⇒
//     vault is locked for the life of the process; Shadow writes and
//     typed Shadow reads fail with the locked error).
//  4. Open the partitioned store (creates all nine buckets).
//  5. Seed partition metadata.
//  6. Start the Prometheus metrics server (loopback only).
//  7. Start the operator admin socket.
//  8. Start the periodic pruning loop.
//  9. Block on SIGINT/SIGTERM for graceful shutdown.
//
// Shutdown sequence: cancel the root context, stop the pruning bucket,
// close the store, flush the logger, exit 0.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sovereignkb/substrate/internal/audit"
	"github.com/sovereignkb/substrate/internal/config"
	"github.com/sovereignkb/substrate/internal/governor"
	"github.com/sovereignkb/substrate/internal/observability"
	"github.com/sovereignkb/substrate/internal/operator"
	"github.com/sovereignkb/substrate/internal/prune"
	"github.com/sovereignkb/substrate/internal/store"
	"github.com/sovereignkb/substrate/internal/substrate"
	"github.com/sovereignkb/substrate/internal/vault"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "status", "snapshot", "evaluate", "prune", "audit":
		runClientCommand(os.Args[1], os.Args[2:])
	case "-version", "--version", "version":
		fmt.Printf("substratectl %s (commit=%s built=%s)\n",
			config.Version, config.GitCommit, config.BuildTime)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: substratectl serve -config=<path>")
	fmt.Fprintln(os.Stderr, "       substratectl {status|snapshot|evaluate|prune|audit} -socket=<path>")
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "/etc/substrate/substratectl.yaml", "Path to substratectl.yaml")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("substratectl starting",
		zap.String("version", config.Version),
		zap.String("commit", config.GitCommit),
		zap.String("config", *configPath),
		zap.String("agent_id", cfg.AgentID),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	masterKey, err := config.ResolveShadowKey()
	if err != nil {
		log.Warn("SUBSTRATE_SHADOW_KEY unusable — Shadow partition will start locked", zap.Error(err))
		masterKey = nil
	}
	v, err := vault.New(masterKey)
	if err != nil {
		log.Fatal("vault init failed", zap.Error(err))
	}
	if v.IsUnlocked() {
		log.Info("secret vault unlocked")
	} else {
		log.Info("secret vault locked (no master key supplied)")
	}

	s, err := store.Open(cfg.Storage.Path(), v, log)
	if err != nil {
		log.Fatal("store open failed", zap.Error(err), zap.String("path", cfg.Storage.Path()))
	}
	defer s.Close() //nolint:errcheck
	log.Info("store opened", zap.String("path", cfg.Storage.Path()))

	if err := s.InitMetadata(); err != nil {
		log.Warn("partition metadata init failed", zap.Error(err))
	}

	sub := substrate.New(s, log)
	sub.SetAuditTrail(audit.NewTrail(audit.DefaultBounds()))

	metrics := observability.NewMetrics()
	if v.IsUnlocked() {
		metrics.VaultUnlocked.Set(1)
	}
	s.SetMetrics(metrics)
	go func() {
		if err := metrics.ServeMetrics(ctx, cfg.Observability.MetricsAddr); err != nil {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("metrics server started", zap.String("addr", cfg.Observability.MetricsAddr))

	bucket := prune.NewBucket(cfg.Pruning.BatchCapacity, cfg.Pruning.RefillPeriod)
	defer bucket.Close()

	weights := governor.Weights{
		BurnoutPenalty: cfg.Governor.BurnoutPenalty,
		MinHardFactor:  cfg.Governor.MinHardFactor,
	}

	if cfg.Operator.Enabled {
		srv := operator.NewServer(cfg.Operator.SocketPath, sub, weights, bucket,
			time.Duration(cfg.Pruning.RetentionDays)*24*time.Hour, log)
		srv.SetMetrics(metrics)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("operator server error", zap.Error(err))
			}
		}()
		log.Info("operator socket started", zap.String("path", cfg.Operator.SocketPath))
	} else {
		log.Info("operator socket disabled")
	}

	go runPruneLoop(ctx, s, bucket, time.Duration(cfg.Pruning.RetentionDays)*24*time.Hour, metrics, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	log.Info("substratectl shutdown complete")
}

// runPruneLoop runs prune.Sweep on a fixed interval derived from the
// retention window (a tenth of it, kept between one minute and one hour;
// see retentionTickInterval). Partition entry gauges are refreshed on the
// same tick.
func runPruneLoop(ctx context.Context, s *store.Store, bucket *prune.Bucket, retention time.Duration, metrics *observability.Metrics, log *zap.Logger) {
	ticker := time.NewTicker(retentionTickInterval(retention))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := prune.Sweep(s, bucket, retention, time.Now(), log)
			if err != nil {
				log.Error("prune sweep failed", zap.Error(err))
				continue
			}
			total := 0
			for slot, n := range res.RemovedBySlot {
				total += n
				metrics.PruneEntriesRemovedTotal.WithLabelValues(slot).Add(float64(n))
			}
			metrics.PruneBudgetTokensRemaining.Set(float64(bucket.Remaining()))
			for _, st := range s.Status() {
				metrics.PartitionEntries.WithLabelValues(st.Label).Set(float64(st.Entries))
			}
			if total > 0 || res.Throttled {
				log.Info("prune sweep complete", zap.Int("removed", total), zap.Bool("throttled", res.Throttled))
			}
		}
	}
}

func retentionTickInterval(retention time.Duration) time.Duration {
	const maxInterval = time.Hour
	if retention/10 < maxInterval {
		if retention/10 < time.Minute {
			return time.Minute
		}
		return retention / 10
	}
	return maxInterval
}

func runClientCommand(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	sockPath := fs.String("socket", "/run/substrate/operator.sock", "Path to the operator Unix socket")
	_ = fs.Parse(args)

	resp, err := operator.Call(*sockPath, cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: encode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// buildLogger constructs a zap.Logger with the given level and format.
func buildLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg.Build()
}
