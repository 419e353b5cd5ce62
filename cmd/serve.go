package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/skiresort-ranker/internal/api"
	"github.com/JakeFAU/skiresort-ranker/internal/server"
)

// newServeCmd creates the 'serve' subcommand, which runs the ranking API.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the resort ranking API",
		Long: `Starts the HTTP API. GET /api ranks the resorts of a region by vertical
drop, elevation or descent efficiency from the coordinates given.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	cfg := a.Config()
	logger := a.Logger()

	store, err := a.NewStore(ctx)
	if err != nil {
		return err
	}
	ranker, err := a.NewRanker(store)
	if err != nil {
		return err
	}

	apiServer := api.NewServer(ranker, store, api.Options{RequestTimeout: cfg.Server.RequestTimeout}, logger.Named("api"))
	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, apiServer.Handler(), logger.Named("server"))
	return srv.Run(ctx)
}
