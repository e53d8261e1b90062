package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/dbchat/chat"
	"github.com/tailored-agentic-units/dbchat/retrieval"
	"github.com/tailored-agentic-units/dbchat/server"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat over Connect",
		Long: `Starts an HTTP server exposing ChatService/Submit, ChatService/Transcript and
ChatService/End. Sessions unused for session.idle_timeout are ended.

Example:
  dbchat serve --db file:shop.db --addr :8080
  curl -H 'Content-Type: application/json' -d '{"question":"How many orders last month?"}' \
    http://localhost:8080/dbchat.chat.v1.ChatService/Submit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx := cmd.Context()
			o, err := chat.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to create orchestrator: %w", err)
			}
			defer o.Close()

			go o.Store().RunExpiry(ctx)

			mux := server.NewMux()
			mux.Handle(server.NewHandler(o))

			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Addr, err)
			}
			return server.Serve(ctx, ln, mux, serveOptions(cfg))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func newRetrievalServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "retrieval-serve",
		Short: "Serve SQL retrieval over Connect for remote orchestrators",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Retrieval.Mode = retrieval.ModeSQL

			agents, err := chat.NewAgentRegistry(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, closeDB, err := chat.NewRetriever(ctx, cfg, agents)
			if err != nil {
				return fmt.Errorf("failed to create retrieval service: %w", err)
			}
			defer closeDB()

			mux := server.NewMux()
			mux.Handle(retrieval.NewHandler(svc))

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			return server.Serve(ctx, ln, mux, serveOptions(cfg))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8081", "Listen address")
	return cmd
}

func serveOptions(cfg *chat.Config) server.Options {
	return server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}
}
