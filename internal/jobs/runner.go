// Package jobs drives the periodic maintenance loop. Each cycle runs the
// enabled mutators while an interval timer ticks alongside; the next
// cycle starts once both have finished, so a slow cycle never stacks.
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/config"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/internal/providers/nfl"
	"github.com/gridironmods/sideline/internal/sidebar"
	"github.com/gridironmods/sideline/internal/votes"
)

// Runner owns the maintenance loop. The mutator funcs default to the
// real implementations and can be swapped in tests.
type Runner struct {
	Platform *platform.Client
	Stats    *nfl.Client
	Log      *logrus.Logger

	Community string
	TeamAbbr  string
	AssetsDir string
	Interval  time.Duration

	UpdateScores    func(ctx context.Context, cfg config.Config) error
	UpdateDownvotes func(ctx context.Context, cfg config.Config) error
}

// Run executes maintenance cycles until the context is done. The wiki
// config is read once when the loop starts; restart the process to pick
// up config changes.
func (r *Runner) Run(ctx context.Context) error {
	r.installDefaults()
	interval := r.Interval
	if interval <= 0 {
		interval = 300 * time.Second
	}

	cfg, err := config.Load(ctx, r.Platform, r.Community)
	if err != nil {
		return err
	}
	r.Log.WithFields(logrus.Fields{
		"sidebar_scores": cfg.EnableAutomaticSidebarScores,
		"downvotes":      cfg.EnableAutomaticDownvotes,
		"interval":       interval,
	}).Info("starting job runner")

	return r.run(ctx, cfg, interval)
}

// run executes cycles back to back. Each cycle starts an interval timer
// and the mutators together; the next cycle waits for both.
func (r *Runner) run(ctx context.Context, cfg config.Config, interval time.Duration) error {
	for {
		timer := time.NewTimer(interval)
		done := make(chan struct{})
		go func() {
			r.RunOnce(ctx, cfg)
			close(done)
		}()

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-done:
		}
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce executes a single cycle. A mutator failure is logged and does
// not stop the remaining mutators.
func (r *Runner) RunOnce(ctx context.Context, cfg config.Config) {
	r.installDefaults()
	if cfg.EnableAutomaticSidebarScores {
		if err := r.UpdateScores(ctx, cfg); err != nil {
			r.Log.WithError(err).Error("sidebar score update failed")
		}
	}
	if cfg.EnableAutomaticDownvotes {
		if err := r.UpdateDownvotes(ctx, cfg); err != nil {
			r.Log.WithError(err).Error("downvote icon update failed")
		}
	}
}

func (r *Runner) installDefaults() {
	if r.UpdateScores == nil {
		r.UpdateScores = r.updateScores
	}
	if r.UpdateDownvotes == nil {
		r.UpdateDownvotes = r.updateDownvotes
	}
}

func (r *Runner) updateScores(ctx context.Context, _ config.Config) error {
	games, err := r.Stats.Scores(ctx, r.TeamAbbr)
	if err != nil {
		return err
	}
	records, err := r.Stats.Standings(ctx, nil, "AFC_NORTH")
	if err != nil {
		return err
	}
	return sidebar.UpdateScore(ctx, r.Platform, r.Log, r.Community, games, records)
}

func (r *Runner) updateDownvotes(ctx context.Context, cfg config.Config) error {
	games, err := r.Stats.Scores(ctx, r.TeamAbbr)
	if err != nil {
		return err
	}
	return votes.Update(ctx, r.Platform, r.Log, cfg, r.Community, r.AssetsDir, games, time.Now().UTC())
}
