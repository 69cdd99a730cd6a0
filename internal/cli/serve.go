package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/carepath/internal/server"
)

// serveCommand creates the serve command running the reference document
// service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference document service",
		Long: `Run the reference document service the editor saves to.

Graphs are kept in memory unless server.mongo_uri is configured. When
server.nats_url is set, every save is announced on ` + server.SubjectGraphSaved + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)
	sc := c.cfg.Server

	var repo server.Repository = server.NewMemoryRepository()
	if sc.MongoURI != "" {
		mr, err := server.NewMongoRepository(ctx, sc.MongoURI, sc.MongoDatabase)
		if err != nil {
			return err
		}
		repo = mr
		logger.Info("using mongo", "database", sc.MongoDatabase)
	} else {
		logger.Warn("no server.mongo_uri configured, graphs are kept in memory")
	}

	var events server.Publisher = server.NoopPublisher{}
	if sc.NATSURL != "" {
		np, err := server.NewNATSPublisher(sc.NATSURL)
		if err != nil {
			_ = repo.Close(ctx)
			return err
		}
		events = np
	}

	srv := server.New(repo,
		server.WithLogger(logger),
		server.WithPublisher(events),
		server.WithToken(sc.Token),
	)
	return srv.ListenAndServe(ctx, addr)
}
