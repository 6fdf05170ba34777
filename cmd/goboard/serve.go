package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/internal/web"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr string
		dev  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			if dev {
				mr, err := miniredis.Run()
				if err != nil {
					return fmt.Errorf("start in-process redis: %w", err)
				}
				defer mr.Close()
				cfg.Storage.Backend = goBoard.StorageRedis
				cfg.Storage.RedisAddr = mr.Addr()
				cfg.Storage.RedisPassword = ""
				cfg.Log.Level = "debug"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides GOBOARD_ADDR")
	cmd.Flags().BoolVar(&dev, "dev", false, "store sessions in an in-process redis and log at debug level")
	return cmd
}

func serve(ctx context.Context, cfg goBoard.Config) error {
	// With audit enabled, events go to the engine's logger.
	engine, err := goBoard.New().WithConfig(cfg).Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	srv, err := web.New(engine)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
