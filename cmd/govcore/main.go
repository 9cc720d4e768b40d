// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/govcore/api"
	"github.com/vechain/govcore/app"
	"github.com/vechain/govcore/clock"
	"github.com/vechain/govcore/config"
	"github.com/vechain/govcore/log"
	"github.com/vechain/govcore/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "govcore")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	cliApp := cli.App{
		Version:   fullVersion(),
		Name:      "govcore",
		Usage:     "Staking, delegation and governance engine",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			verbosityFlag,
			jsonLogsFlag,
			sweepIntervalFlag,
			ntpServerFlag,
			maxClockOffsetFlag,
			enableMetricsFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "default-config",
				Usage:  "print the default configuration as yaml",
				Action: defaultConfigAction,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigAction(*cli.Context) error {
	data, err := config.Default().Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	if err := initLogger(ctx); err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	opts := app.Options{DataDir: dataDir}
	var ntp *clock.NTP
	if server := ctx.String(ntpServerFlag.Name); server != "" {
		ntp = clock.NewNTP(server, ctx.Duration(maxClockOffsetFlag.Name))
		if err := ntp.Sync(); err != nil {
			logger.Warn("initial clock sync failed", "server", server, "err", err)
		}
		opts.Clock = ntp
	}

	engine, err := app.New(cfg, opts)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing databases..."); engine.Close() }()
	if ntp != nil {
		engine.Driver.WithClockSync(ntp)
	}

	handler, closeSubs := api.New(engine, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableReqLogger:      ctx.Bool(enableAPILogsFlag.Name),
		SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		SubscriptionBacklog:  256,
	})
	apiURL, serve, stop, err := startAPIServer(ctx, handler)
	if err != nil {
		return err
	}

	printStartupMessage(dataDir, apiURL, cfg.Driver.Interval)

	exitCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		return engine.Driver.Run(gctx)
	})
	g.Go(serve)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping API server...")
		closeSubs()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return stop(shutdownCtx)
	})
	return g.Wait()
}

func printStartupMessage(dataDir, apiURL string, interval time.Duration) {
	if dataDir == "" {
		dataDir = "(memory)"
	}
	fmt.Printf(`Starting govcore %v
    Data dir     [ %v ]
    Sweep        [ every %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		dataDir,
		interval,
		apiURL)
}
