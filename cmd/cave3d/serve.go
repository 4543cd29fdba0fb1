package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dyuri/cave3d/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve decoding over HTTP",
	Long: `Start an HTTP server that decodes uploaded .3d files.

POST /v1/decode    raw .3d body (optionally gzip, xz or lz4), returns
                   the geometry bundle as JSON (or CBOR with ?format=cbor)
POST /v1/plan      raw .3d body, returns a plan-view PNG`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	opts, err := cfg.GeometryOptions()
	if err != nil {
		return err
	}
	enc, err := cfg.Charset()
	if err != nil {
		return err
	}

	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.New(server.Options{
		Geometry:     opts,
		Charset:      enc,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
