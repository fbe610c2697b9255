package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"word-battle/api"
	"word-battle/battleerrors"
	"word-battle/config"
	"word-battle/game"
	"word-battle/leaderboard"
	"word-battle/render"
	"word-battle/token"
	"word-battle/tui"
)

// errNotRegistered is returned by commands that need a session.
var errNotRegistered = errors.New("not registered; run: wordbattle register <username> <word>")

// run dispatches one subcommand.
func run(ctx context.Context, cfg *config.Config, name string, args []string, out io.Writer) error {
	switch name {
	case "play":
		return runPlay(ctx, cfg, args)
	case "register":
		return runRegister(ctx, cfg, args, out)
	case "whoami":
		return runWhoami(ctx, cfg, out)
	case "battle":
		return runBattle(ctx, cfg, out)
	case "leaderboard":
		return runLeaderboard(ctx, cfg, args, out)
	case "history":
		return runHistory(ctx, cfg, args, out)
	case "reset":
		return runReset(ctx, cfg, out)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

// withApp opens the token store and builds the app for one command.
func withApp(cfg *config.Config, partition string, fn func(*game.App) error) error {
	tokens, err := token.Open(cfg.TokenPath)
	if err != nil {
		return err
	}
	defer tokens.Close()

	app := game.NewApp(api.NewClient(cfg.Endpoint(), nil), tokens, partition)
	defer app.Close()
	return fn(app)
}

// resume restores the session and maps a missing one to errNotRegistered.
func resume(ctx context.Context, app *game.App) error {
	err := app.Resume(ctx)
	if errors.Is(err, battleerrors.ErrNoSession) {
		return errNotRegistered
	}
	return err
}

func runPlay(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	battle := fs.String("battle", "", "open a past battle (uuid:timestamp or share link)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref := playRef(*battle)
	opts := tui.Options{
		Partitions:   cfg.Partitions,
		ShareBaseURL: cfg.ShareBaseURL,
		Radius:       cfg.WindowRadius,
		TopN:         cfg.TopN,
	}
	return withApp(cfg, cfg.Leaderboard, func(app *game.App) error {
		return tui.Run(ctx, app, opts, ref)
	})
}

// playRef parses the -battle value. A malformed value opens the normal
// session flow instead of the historical view.
func playRef(raw string) *game.BattleRef {
	if raw == "" {
		return nil
	}
	ref, ok := game.LookupBattleRef(raw)
	if !ok {
		slog.Warn("ignoring malformed battle reference", "tag", "main", "ref", raw)
		return nil
	}
	return &ref
}

func runRegister(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "player name")
	word := fs.String("word", "", "battle word")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) == 2 {
		*username, *word = rest[0], rest[1]
	}

	return withApp(cfg, cfg.Leaderboard, func(app *game.App) error {
		_, err := app.Register(ctx, *username, *word, func(id string) {
			fmt.Fprintf(out, "Registered as %s\n", id)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, render.UserCard(app.Snapshot().User))
		return nil
	})
}

func runWhoami(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withApp(cfg, cfg.Leaderboard, func(app *game.App) error {
		if err := resume(ctx, app); err != nil {
			return err
		}
		fmt.Fprintln(out, render.UserCard(app.Snapshot().User))
		rank, err := app.Rank()
		switch {
		case err == nil:
			fmt.Fprintf(out, "Leaderboard position: #%d\n", rank)
		case errors.Is(err, battleerrors.ErrPlayerNotFound):
			fmt.Fprintln(out, render.PlayerNotFound)
		default:
			return err
		}
		return nil
	})
}

func runBattle(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withApp(cfg, cfg.Leaderboard, func(app *game.App) error {
		if err := resume(ctx, app); err != nil {
			return err
		}
		res, err := app.Battle(ctx)
		if err != nil {
			return err
		}
		share, err := game.ShareURL(cfg.ShareBaseURL, game.RefOf(res))
		if err != nil {
			share = game.RefOf(res).String()
		}
		fmt.Fprintln(out, render.BattleCard(res, share))
		return nil
	})
}

func runLeaderboard(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	all := fs.Bool("all", false, "list every player instead of the window around you")
	partition := fs.String("partition", cfg.Leaderboard, "leaderboard partition (empty for all players)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(cfg, *partition, func(app *game.App) error {
		if err := resume(ctx, app); err != nil && !errors.Is(err, errNotRegistered) {
			return err
		}
		snap := app.Snapshot()
		if snap.Leaderboard.Err != "" {
			return errors.New(snap.Leaderboard.Err)
		}
		sb := leaderboard.NewScoreboard(cfg.WindowRadius, cfg.TopN)
		sb.ShowAll = *all
		fmt.Fprintln(out, render.Scoreboard(sb.Build(snap.Leaderboard.Players, snap.CurrentID()), snap.Leaderboard))
		return nil
	})
}

func runHistory(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("history takes exactly one battle reference")
	}
	ref, ok := game.LookupBattleRef(args[0])
	if !ok {
		return battleerrors.ErrMalformedRef
	}
	return withApp(cfg, cfg.Leaderboard, func(app *game.App) error {
		res, err := app.HistoricalBattle(ctx, ref)
		if err != nil {
			return fmt.Errorf("%s: %s", render.HistoryFailed, api.UserMessage(err))
		}
		fmt.Fprintln(out, render.BattleCard(res, ""))
		return nil
	})
}

func runReset(ctx context.Context, cfg *config.Config, out io.Writer) error {
	return withApp(cfg, cfg.Leaderboard, func(app *game.App) error {
		if err := app.TryAnotherWord(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Session cleared. Register again to try another word.")
		return nil
	})
}

// describe turns err into the line printed before exiting.
func describe(err error) string {
	var tErr *api.TransportError
	if api.IsAPIError(err) || errors.As(err, &tErr) || errors.Is(err, battleerrors.ErrMissingField) {
		return render.ErrorMessage(err)
	}
	return err.Error()
}
