// Package votes swaps the community's custom downvote icons to show the
// upcoming opponent, on both the legacy stylesheet and the new-style
// structured styles.
package votes

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gridironmods/sideline/internal/config"
	"github.com/gridironmods/sideline/internal/cssutil"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/pkg/models"
)

// Legacy stylesheet identities for the two downvote arrow states.
const (
	downvoteUnvotedSelector = ".arrow.down"
	downvoteVotedSelector   = ".arrow.downmod"
	downvoteUnvotedToken    = "%%teamsmallfade%%"
	downvoteVotedToken      = "%%teamsmall%%"
)

// Update points the downvote icons at the next opponent. The new-style
// icons are only re-uploaded when the current ones predate the last game,
// keeping the operation idempotent between games.
func Update(
	ctx context.Context,
	client *platform.Client,
	log *logrus.Logger,
	cfg config.Config,
	community string,
	assetsDir string,
	games []models.Game,
	now time.Time,
) error {
	nextGame := models.NextGame(games, cfg.DownvotesDelay, now)
	if nextGame == nil {
		log.Info("no upcoming game, leaving downvote icons alone")
		return nil
	}
	lastGame := models.LastGame(games, cfg.DownvotesDelay, now)

	nextAbbr := nextGame.Opponent.Abbr
	if err := updateLegacy(ctx, client, community, nextAbbr); err != nil {
		return fmt.Errorf("updating legacy downvote icons: %w", err)
	}

	if lastGame == nil {
		return nil
	}
	if err := updateStructured(ctx, client, community, assetsDir, nextAbbr, lastGame.Time); err != nil {
		return fmt.Errorf("updating structured downvote icons: %w", err)
	}

	log.WithField("opponent", nextAbbr).Info("downvote icons updated")
	return nil
}

// updateLegacy rewrites the arrow rules' sprite offset and image token.
func updateLegacy(ctx context.Context, client *platform.Client, community, team string) error {
	css, err := client.Stylesheet(ctx, community)
	if err != nil {
		return err
	}
	rules, err := cssutil.Parse(css)
	if err != nil {
		return fmt.Errorf("parsing stylesheet: %w", err)
	}

	offset := models.TeamSpriteOffset(team)
	for _, rule := range cssutil.FindRules(rules, downvoteUnvotedSelector, downvoteVotedSelector) {
		rule.Set("background-position", fmt.Sprintf("0 %dpx", offset))
		token := downvoteVotedToken
		if rule.Selector == downvoteUnvotedSelector {
			token = downvoteUnvotedToken
		}
		rule.Set("background-image", fmt.Sprintf("url(%s)", token))
	}

	updated := cssutil.Serialize(rules)
	if updated == css {
		return nil
	}
	return client.UpdateStylesheet(ctx, community, updated)
}

// updateStructured re-uploads the opponent icon pair when the hosted
// icons are older than the last game.
func updateStructured(ctx context.Context, client *platform.Client, community, assetsDir, team string, lastGameTime time.Time) error {
	styles, err := client.StructuredStyles(ctx, community)
	if err != nil {
		return err
	}
	if styles.PostDownvoteIconInactive == "" {
		return nil
	}

	iconAge, err := client.URLLastModified(ctx, styles.PostDownvoteIconInactive)
	if err != nil {
		return err
	}
	if !iconAge.Before(lastGameTime) {
		return nil
	}

	activeURL, err := client.UploadStyleAsset(ctx, community, "postDownvoteIconActive", models.TeamIconPath(assetsDir, team))
	if err != nil {
		return err
	}
	inactiveURL, err := client.UploadStyleAsset(ctx, community, "postDownvoteIconInactive", models.TeamIconBWPath(assetsDir, team))
	if err != nil {
		return err
	}

	return client.UpdateStructuredStyles(ctx, community, map[string]string{
		"postVoteIcons":            "custom",
		"postDownvoteIconActive":   activeURL,
		"postDownvoteIconInactive": inactiveURL,
	})
}
