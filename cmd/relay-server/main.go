// Package main Avatar Relay API Server
//
//	@title			Avatar Relay API
//	@version		1.0
//	@description	Server-side relay for the avatar chat client: session tokens, chat pass-through and retrieval-augmented persona answers
//
//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html
//
//	@host		localhost:8000
//	@BasePath	/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "avatar-relay/docs" // This imports the docs package to initialize swagger
	"avatar-relay/internal/server"
	"avatar-relay/internal/settings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("relay server exited")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := settings.New()

	var (
		configPath string
		envFiles   []string
	)

	cmd := &cobra.Command{
		Use:          "relay-server",
		Short:        "Serve the avatar relay",
		Long:         "Serves the avatar application shell and relays token and chat requests to the providers, keeping their API keys on the server.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, configPath, envFiles)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML/JSON/TOML config file")
	flags.StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	flags.String("addr", ":8000", "listen address")
	flags.String("mode", "explicit", "retrieval mode: explicit or provider")
	flags.String("backend", "openai", "document index backend: openai or chroma")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console or json")

	bindFlag(v, "server.addr", cmd, "addr")
	bindFlag(v, "retrieval.mode", cmd, "mode")
	bindFlag(v, "retrieval.backend", cmd, "backend")
	bindFlag(v, "log.level", cmd, "log-level")
	bindFlag(v, "log.format", cmd, "log-format")

	return cmd
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, v *viper.Viper, configPath string, envFiles []string) error {
	cfg, err := settings.Load(v, configPath, envFiles...)
	if err != nil {
		return errors.Wrap(err, "load settings")
	}

	logger, err := settings.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "initialize server")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
