package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/theirongolddev/rfcst/internal/server"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeOrigins      []string
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve plant inputs and reforecast runs over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (defaults to config)")
	serveCmd.Flags().StringSliceVar(&flagServeOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	addr := flagServeAddr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	origins := flagServeOrigins
	if len(origins) == 0 {
		origins = e.cfg.Server.AllowedOrigins
	}

	svc := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: origins,
		DefaultMonth:   e.defaultMonth(),
		DefaultFormats: e.cfg.General.DefaultFormats,
		Workers:        flagWorkers,
		EventsBuffer:   flagServeEventsBuffer,
	}, st, e.catalog, e.log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return svc.Run(ctx)
}
