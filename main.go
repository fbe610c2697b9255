package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"word-battle/config"
	"word-battle/loghandler"
)

func main() {
	envErr := godotenv.Load()

	configPath := flag.String("config", "config.json", "path to an optional JSON config file")
	flag.Usage = usage
	flag.Parse()

	cfg := config.LoadFile(*configPath)

	name, args := "play", flag.Args()
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	closeLog := setupLogging(cfg, name == "play")
	defer closeLog()
	if envErr != nil {
		slog.Debug("no .env file found; using environment variables", "tag", "config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, name, args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		closeLog()
		os.Exit(1)
	}
}

// setupLogging installs the compact slog handler. The terminal UI owns the
// screen, so in that mode logs go to cfg.LogPath instead of stderr.
func setupLogging(cfg *config.Config, toFile bool) func() {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if toFile {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o700); err == nil {
			f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err == nil {
				w = f
				closeFn = func() { _ = f.Close() }
			}
		}
	}
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(w, loghandler.ParseLevel(cfg.LogLevel))))
	slog.Debug("configuration loaded", "tag", "config", "env", cfg.Env, "endpoint", cfg.Endpoint(), "token_path", cfg.TokenPath)
	return closeFn
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, `Usage: wordbattle [-config file] <command> [args]

Commands:
  play [-battle ref|url]         interactive terminal UI (default)
  register <username> <word>     register a player and start a session
  whoami                         show the signed-in player and rank
  battle                         fight a server-chosen opponent
  leaderboard [-all] [-partition name]
                                 show the leaderboard around you
  history <uuid:timestamp|url>   show a past battle
  reset                          forget the session to try another word

Flags:
`)
	flag.PrintDefaults()
}
