package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/internal/scheduler"
	"github.com/renanmoretto/finbr/internal/server"
	"github.com/renanmoretto/finbr/marketdata/b3"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API and the settlement scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			pinned, err := a.pinnedDate()
			if err != nil {
				return err
			}

			srvCfg := server.Config{
				Addr:        addr,
				CORSOrigins: a.cfg.Server.CORSOrigins,
				Log:         a.log,
				Calendar:    a.cal,
				Workers:     a.cfg.Pricing.Workers,
				AsOf:        pinned,
				Now:         a.now,
				Feed:        b3.DefaultSettlementFeed(),
			}

			if a.cfg.Scheduler.Enabled {
				sched, snapshots, err := a.newScheduler(srvCfg.Feed, pinned)
				if err != nil {
					return err
				}
				srvCfg.Snapshots = snapshots
				sched.Start()
				defer sched.Stop()
			}

			srv := server.New(srvCfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}

func (a *app) newScheduler(feed b3.SettlementFeed, pinned time.Time) (*scheduler.Scheduler, *scheduler.SettlementSnapshot, error) {
	clock := func() time.Time {
		if !pinned.IsZero() {
			return pinned
		}
		return calendar.Today(a.now())
	}

	sched := scheduler.New(a.log)
	snapshots := scheduler.NewSettlementSnapshot(a.pricer, feed, clock, a.cfg.Pricing.Workers)
	warmup := scheduler.NewCalendarWarmup(a.cal, clock)

	if err := sched.AddJob(a.cfg.Scheduler.SettlementSchedule, snapshots); err != nil {
		return nil, nil, err
	}
	if err := sched.AddJob(a.cfg.Scheduler.WarmupSchedule, warmup); err != nil {
		return nil, nil, err
	}

	if err := sched.RunNow(warmup); err != nil {
		a.log.Warn().Err(err).Msg("calendar warmup failed")
	}
	if err := sched.RunNow(snapshots); err != nil {
		a.log.Warn().Err(err).Msg("no settlement snapshot at startup")
	}
	return sched, snapshots, nil
}
