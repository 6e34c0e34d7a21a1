// SPDX-License-Identifier: AGPL-3.0-or-later
// rrc - radio resource control core for a tactical MANET radio
// Copyright (C) 2026 Tactical Mesh Contributors

package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tacticalmesh/rrc/internal/rrc/ipc"
	"github.com/tacticalmesh/rrc/internal/rrc/timesync"
	"golang.org/x/sync/errgroup"
)

// connCtxSweepInterval bounds how often the Setup/Connected timeout
// rules of spec §4.6 are re-evaluated; short relative to both timeouts
// so a sweep never misses an expiry by more than this margin.
const connCtxSweepInterval = 2 * time.Second

// ncEvictionSweepInterval checks for NC neighbors silent for two
// super-cycles (spec §4.7). A super-cycle is 20 frames * 100ms = 2s, so
// a 2s sweep period catches an eviction within one super-cycle of it
// becoming due.
const ncEvictionSweepInterval = 2 * time.Second

// Run drives the tick loop and the three asynchronous IPC listeners
// (PHY updates, RX frames from L2, and periodic sweeps) until ctx is
// cancelled, matching the spec's "single RRC task" concurrency model
// (§6 of SPEC_FULL.md): one goroutine for the tick loop plus one each
// for the inbound channels, coordinated by an errgroup so any goroutine
// failing tears the rest down.
func (c *Core) Run(ctx context.Context, checkpoint *Checkpointer) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.tickLoop(ctx) })
	g.Go(func() error { return c.drainPhy(ctx) })
	g.Go(func() error { return c.drainRx(ctx) })

	sched, err := c.startSweeps(ctx, checkpoint)
	if err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return sched.Shutdown()
	})

	return g.Wait()
}

func (c *Core) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(c.cfg.Tdma.SlotDurationMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

func (c *Core) drainPhy(ctx context.Context) error {
	if c.phy == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-c.phy.Updates():
			if !ok {
				return nil
			}
			c.HandlePhyUpdate(u)
		}
	}
}

func (c *Core) drainRx(ctx context.Context) error {
	if c.rx == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-c.rx.RxFrames():
			if !ok {
				return nil
			}
			c.HandleRxFrame(ctx, f)
		}
	}
}

// startSweeps schedules the periodic connection-context reaper, NC
// eviction sweep, and (if checkpoint is non-nil) the state checkpoint
// job, returning the running gocron.Scheduler for the caller to shut
// down on cancellation.
func (c *Core) startSweeps(ctx context.Context, checkpoint *Checkpointer) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(connCtxSweepInterval),
		gocron.NewTask(func() {
			released := c.SweepConnectionContexts()
			for _, dest := range released {
				slog.Debug("connection context released", "dest", dest)
			}
		}),
	); err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(ncEvictionSweepInterval),
		gocron.NewTask(func() { c.sweepNCEviction() }),
	); err != nil {
		return nil, err
	}

	if checkpoint != nil {
		if _, err := sched.NewJob(
			gocron.DurationJob(checkpoint.interval),
			gocron.NewTask(func() {
				if err := checkpoint.Save(ctx, c.Checkpoint()); err != nil {
					slog.Warn("failed to save checkpoint", "error", err)
				}
			}),
		); err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}

// sweepNCEviction evicts neighbors whose last-reported NC slot hasn't
// been refreshed in two super-cycles (spec §4.7). Staleness here is a
// fixed window of two super-cycles (2 x 20 frames x 100ms = 4s), measured
// from the neighbor's last link-quality update; it does not use the
// tracker's own staleness threshold.
func (c *Core) sweepNCEviction() {
	c.mu.Lock()
	defer c.mu.Unlock()

	superCycle := time.Duration(ncSlotsPerSupercycle) * timesync.FrameDurationMs * time.Millisecond
	staleAfter := 2 * superCycle

	now := c.now()
	for id, n := range c.tracker.All() {
		if n.NCSlot <= 0 {
			continue
		}
		age := now.Sub(time.Unix(0, n.LastUpdateNs))
		if age > staleAfter {
			c.nc.Clear(n.NCSlot - 1)
			c.tracker.Evict(id)
		}
	}
}

// ReceiveRxFrame lets an in-process L2 implementation push a received
// frame directly, for callers that don't go through the ChannelBus's
// PushRxFrame/RxFrames pair (e.g. tests).
func (c *Core) ReceiveRxFrame(ctx context.Context, f ipc.RxFrame) {
	c.HandleRxFrame(ctx, f)
}
