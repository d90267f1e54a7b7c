// Package commands parses and executes moderator chat commands. The
// command line is tokenized shell-style and dispatched through a CLI
// app, so help text and flag validation come for free.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/gridironmods/sideline/internal/gamethread"
	"github.com/gridironmods/sideline/internal/notify"
	"github.com/gridironmods/sideline/internal/platform"
	"github.com/gridironmods/sideline/internal/sidebar"
)

// Dispatcher executes moderator commands against the community.
type Dispatcher struct {
	Platform *platform.Client
	Thread   *gamethread.Generator
	Log      *logrus.Logger

	Community string
}

// Dispatch runs one command line. All output, including usage errors and
// help text, is delivered through the notifier.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, send notify.Notifier) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "/")
	args, err := shlex.Split(input)
	if err != nil {
		_ = send.Notify(ctx, fmt.Sprintf("Could not parse command: %v", err))
		return
	}
	if len(args) == 0 {
		return
	}

	// Moderators write "/ban user -d 5 -r 1"; flag parsing stops at the
	// first positional, so flags are moved ahead of the arguments.
	if len(args) > 1 {
		args = append(args[:1:1], reorderFlags(args[1:])...)
	}

	var out bytes.Buffer
	app := d.newApp(send, &out)
	if err := app.RunContext(ctx, append([]string{app.Name}, args...)); err != nil {
		_ = send.Notify(ctx, err.Error())
	}
	if text := strings.TrimSpace(out.String()); text != "" {
		_ = send.Notify(ctx, text)
	}
}

// reorderFlags moves "-flag value" pairs ahead of positional arguments.
// Every flag the commands define takes a value.
func reorderFlags(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") && args[i] != "-" {
			flags = append(flags, args[i])
			if i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positional = append(positional, args[i])
	}
	return append(flags, positional...)
}

func (d *Dispatcher) newApp(send notify.Notifier, out *bytes.Buffer) *cli.App {
	app := &cli.App{
		Name:      "sideline",
		Usage:     "moderator commands",
		Writer:    out,
		ErrWriter: out,
		HideHelp:  false,
		// The default handler calls os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
		CommandNotFound: func(c *cli.Context, name string) {
			fmt.Fprintf(out, "Unknown command %q, try /help", name)
		},
		Commands: []*cli.Command{
			{
				Name:      "ban",
				Usage:     "ban a user for breaking a rule",
				ArgsUsage: "<username>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rule", Aliases: []string{"r"}, Required: true, Usage: "rule number the user broke"},
					&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "ban length in days, permanent when omitted"},
					&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "private mod note"},
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "message sent to the banned user"},
				},
				Action: func(c *cli.Context) error {
					return d.ban(c, send)
				},
			},
			{
				Name:  "sidebar",
				Usage: "replace the sidebar image",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Required: true, Usage: "image to download"},
				},
				Action: func(c *cli.Context) error {
					return sidebar.UpdateImage(c.Context, d.Platform, d.Log, d.Community, c.String("url"), send)
				},
			},
			{
				Name:    "game_day_thread",
				Aliases: []string{"gdt"},
				Usage:   "generate the game day and live threads",
				Action: func(c *cli.Context) error {
					return d.Thread.Post(c.Context, send)
				},
			},
			{
				Name:  "enable_text_posts",
				Usage: "allow both text and link submissions",
				Action: func(c *cli.Context) error {
					if err := d.Platform.SetLinkType(c.Context, d.Community, platform.LinkTypeAny); err != nil {
						return err
					}
					return send.Notify(c.Context, "Text posts enabled")
				},
			},
			{
				Name:  "disable_text_posts",
				Usage: "allow link submissions only",
				Action: func(c *cli.Context) error {
					if err := d.Platform.SetLinkType(c.Context, d.Community, platform.LinkTypeLink); err != nil {
						return err
					}
					return send.Notify(c.Context, "Text posts disabled")
				},
			},
			{
				Name:      "compliment",
				Usage:     "brighten someone's day",
				ArgsUsage: "[username]",
				Action: func(c *cli.Context) error {
					name := strings.TrimPrefix(c.Args().First(), "u/")
					if name == "" {
						return send.Notify(c.Context, "You look nice today")
					}
					return send.Notify(c.Context, fmt.Sprintf("You look nice today, u/%s", name))
				},
			},
		},
	}
	return app
}

func (d *Dispatcher) ban(c *cli.Context, send notify.Notifier) error {
	username := strings.TrimPrefix(c.Args().First(), "u/")
	if username == "" {
		return fmt.Errorf("ban: username is required")
	}

	rules, err := d.Platform.Rules(c.Context, d.Community)
	if err != nil {
		return fmt.Errorf("fetching community rules: %w", err)
	}
	ruleNum := c.Int("rule")
	if ruleNum < 1 || ruleNum > len(rules) {
		return fmt.Errorf("ban: rule must be between 1 and %d", len(rules))
	}
	rule := rules[ruleNum-1].ShortName

	opts := platform.BanOptions{
		Reason:  rule,
		Message: c.String("message"),
		Note:    c.String("note"),
		Days:    c.Int("days"),
	}
	if err := d.Platform.BanUser(c.Context, d.Community, username, opts); err != nil {
		return fmt.Errorf("banning u/%s: %w", username, err)
	}
	d.Log.WithFields(logrus.Fields{"user": username, "rule": ruleNum, "days": opts.Days}).Info("banned user")

	if opts.Days > 0 {
		return send.Notify(c.Context, fmt.Sprintf("u/%s has been banned for %d days for violating %q", username, opts.Days, rule))
	}
	return send.Notify(c.Context, fmt.Sprintf("u/%s has been permanently banned for violating %q", username, rule))
}
