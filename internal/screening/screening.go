// Package screening enforces the community's sensationalized-title rule:
// new link submissions pointing at a social-media status are compared to
// the status text, and poor matches are flaired and reported for
// moderator review.
package screening

import (
	"context"
	"fmt"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/config"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/internal/providers/social"
)

const (
	ruleFlair    = "Rule7"
	reportReason = "No Sensationalized Titles"
)

// Screener watches the community's new submissions and checks each one.
type Screener struct {
	Platform *platform.Client
	Social   *social.Client
	Log      *logrus.Logger

	Community    string
	PollInterval time.Duration
	FetchLimit   int
}

// Run polls the new-submission listing until the context is done.
// Submissions that already exist at startup are skipped. The Config is
// re-read whenever the loop (re)starts.
func (s *Screener) Run(ctx context.Context) error {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	limit := s.FetchLimit
	if limit <= 0 {
		limit = 100
	}

	cfg, err := config.Load(ctx, s.Platform, s.Community)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	seen := map[string]bool{}
	existing, err := s.Platform.NewSubmissions(ctx, s.Community, limit)
	if err != nil {
		return fmt.Errorf("priming submission stream: %w", err)
	}
	for _, sub := range existing {
		seen[sub.ID] = true
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		subs, err := s.Platform.NewSubmissions(ctx, s.Community, limit)
		if err != nil {
			s.Log.WithError(err).Warn("could not fetch new submissions")
			continue
		}
		// The listing is newest-first; walk oldest-first so checks land in
		// posting order.
		for i := len(subs) - 1; i >= 0; i-- {
			sub := subs[i]
			if seen[sub.ID] {
				continue
			}
			seen[sub.ID] = true
			if err := s.Check(ctx, cfg, sub); err != nil {
				s.Log.WithError(err).WithField("submission", sub.ID).Warn("submission check failed")
			}
		}
	}
}

// Check screens one submission. Approved submissions and submissions
// without a resolvable status link are left alone.
func (s *Screener) Check(ctx context.Context, cfg config.Config, sub platform.Submission) error {
	s.Log.WithField("submission", sub.ID).Info("checking submission")
	if sub.ApprovedBy != "" {
		s.Log.WithFields(logrus.Fields{"submission": sub.ID, "approved_by": sub.ApprovedBy}).Info("already approved, skipping")
		return nil
	}

	status := social.ParseStatusURL(sub.URL)
	if status == nil {
		return nil
	}
	sourceText, err := s.Social.StatusText(ctx, sub.URL)
	if err != nil {
		return fmt.Errorf("resolving status text: %w", err)
	}
	if sourceText == "" || sub.Title == "" {
		return nil
	}

	score := fuzzy.PartialRatio(sourceText, sub.Title)

	// The diagnostic comment is posted and immediately removed; it stays
	// visible in the mod log as an audit trail.
	commentID, err := s.Platform.Comment(ctx, sub.Fullname, diagnosticComment(cfg, sourceText, sub.Title, score))
	if err != nil {
		return fmt.Errorf("posting diagnostic comment: %w", err)
	}
	if err := s.Platform.Remove(ctx, commentID); err != nil {
		return fmt.Errorf("removing diagnostic comment: %w", err)
	}

	if score >= cfg.Rule7Threshold {
		return nil
	}

	if err := s.Platform.FlairLink(ctx, s.Community, sub.Fullname, ruleFlair); err != nil {
		return fmt.Errorf("setting flair: %w", err)
	}
	if err := s.Platform.Report(ctx, sub.Fullname, reportReason); err != nil {
		return fmt.Errorf("reporting submission: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"submission": sub.ID, "score": score}).Info("submission flagged for rule 7")
	return nil
}

func diagnosticComment(cfg config.Config, sourceText, title string, score int) string {
	return fmt.Sprintf(`Diagnostics:

Source Title: %q

Post Title: %q

Similarity: %d/%d`, sourceText, title, score, cfg.Rule7Threshold)
}
