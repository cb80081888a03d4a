package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mobsites/Cosmos.Identity/internal/app"
	"github.com/mobsites/Cosmos.Identity/internal/docstore"
	apihttp "github.com/mobsites/Cosmos.Identity/internal/http"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
)

func newAdaptersCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "Lista los adapters de document store registrados",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := docstore.ListAdapters()
			return o.print(cmd.OutOrStdout(), names, func(w io.Writer) {
				for _, n := range names {
					fmt.Fprintln(w, n)
				}
			})
		},
	}
}

func newProvisionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Crea base y containers si no existen (idempotente)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var out []docstore.ContainerProperties
				for _, c := range a.Router.Containers() {
					out = append(out, c.Properties())
				}
				sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
				return o.print(cmd.OutOrStdout(), out, func(w io.Writer) {
					fmt.Fprintf(w, "strategy=%s database=%s\n", a.Router.Strategy(), o.cfg.DatabaseID)
					for _, c := range out {
						fmt.Fprintf(w, "  %s (pk %s)\n", c.ID, c.PartitionKeyPath)
					}
				})
			})
		},
	}
}

func newServeCmd(o *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Sirve la API de lectura, health y métricas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = o.cfg.HTTP.Addr
				}
				h, err := apihttp.NewRouter(apihttp.DepsFromApp(a))
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				logger.From(ctx).Info("serving identity read API", logger.String("addr", addr))
				return apihttp.Start(ctx, addr, h)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "host:port (default: http.addr de la configuración)")
	return cmd
}
