package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	app "github.com/rocketscienceinc/tictactoe-hotseat/internal"
	"github.com/rocketscienceinc/tictactoe-hotseat/internal/config"
)

type runtime struct {
	conf   *config.Config
	logger *slog.Logger
}

type CLI struct {
	Config string `help:"Path to the config file." default:"config.yml" type:"path"`

	Serve ServeCmd `cmd:"" default:"1" help:"Run the REST and WebSocket servers."`
	Play  PlayCmd  `cmd:"" help:"Play a hot-seat match in the terminal."`
}

type ServeCmd struct{}

func (that *ServeCmd) Run(rt *runtime) error {
	return app.RunApp(rt.logger, rt.conf)
}

type PlayCmd struct {
	PlayerOne string `name:"player1" help:"Name of the player who plays X."`
	PlayerTwo string `name:"player2" help:"Name of the player who plays O."`
}

func (that *PlayCmd) Run(rt *runtime) error {
	// errors only unless debugging, the board owns stdout
	logger := rt.logger
	if rt.conf.LogLevel != "debug" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}

	return app.RunConsole(logger, rt.conf, that.PlayerOne, that.PlayerTwo)
}

// main - is the entry point of the application. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("tictactoe"),
		kong.Description("Two-player hot-seat tic-tac-toe."),
		kong.UsageOnError(),
	)

	conf := initConfig(cli.Config)
	logger := initLogger(conf)

	if err := ctx.Run(&runtime{conf: conf, logger: logger}); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config.
func initConfig(path string) *config.Config {
	return config.MustLoad(path)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	level, err := conf.SlogLevel()
	if err != nil {
		panic(fmt.Errorf("failed to init logger: %w", err))
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
