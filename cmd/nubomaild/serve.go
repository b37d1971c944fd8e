package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/admin"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/metrics"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/sync"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mailbox synchronization daemon",
	Long: `Run the mailbox synchronization daemon.

The daemon requires NUBO_DATABASE_URL, NUBO_SECURITY_DATA_KEY, and the
NUBO_STORAGE_* settings. Database migrations run on startup; use
--no-migrate to skip them.

SIGINT or SIGTERM stops the schedule; a pass already in flight finishes
before the process exits.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		log := mustLogger(cfg)

		var missing []string
		if cfg.Database.URL == "" {
			missing = append(missing, "NUBO_DATABASE_URL")
		}
		if cfg.Security.DataKey == "" {
			missing = append(missing, "NUBO_SECURITY_DATA_KEY")
		}
		if cfg.Storage.Bucket == "" {
			missing = append(missing, "NUBO_STORAGE_BUCKET")
		}
		if len(missing) > 0 {
			fmt.Fprintf(os.Stderr, "missing required settings: %s\n", strings.Join(missing, ", "))
			os.Exit(1)
		}

		encryptor := mustEncryptor(cfg)

		st := mustOpenStore(cfg)
		defer st.Close()

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Info("running database migrations")
			if err := st.Migrate(); err != nil {
				fatal(fmt.Errorf("migrating database: %w", err))
			}
		}

		blobs := mustBlobStore(cfg)

		m := metrics.Default()
		engine := sync.NewEngine(cfg.Sync, st, blobs, sync.NewFactory(), encryptor, m, log)
		runner := sync.NewRunner(engine, cfg.Sync, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return runner.Run(gctx)
		})

		if cfg.Admin.Enabled {
			adminSrv := admin.New(cfg.Admin, cfg.Sync.Interval, version, engine.Tracker(), log)
			g.Go(adminSrv.ListenAndServe)
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return adminSrv.Shutdown(shutdownCtx)
			})
		}

		log.Info("daemon started",
			slog.String("version", version),
			slog.Duration("interval", cfg.Sync.Interval))

		if err := g.Wait(); err != nil {
			fatal(err)
		}
		log.Info("daemon stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
