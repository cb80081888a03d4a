package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mobsites/Cosmos.Identity/internal/app"
	"github.com/mobsites/Cosmos.Identity/internal/config"
	"github.com/mobsites/Cosmos.Identity/internal/observability/logger"
	"github.com/mobsites/Cosmos.Identity/internal/storage"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	out        string // json | text

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:           "identityctl",
		Short:         "CLI del store de identidad sobre document stores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", envOr("IDENTITY_CONFIG", ""), "Archivo YAML de configuración (env IDENTITY_CONFIG)")
	root.PersistentFlags().StringSliceVar(&o.envFiles, "env-file", nil, "Archivos .env a cargar antes de leer la configuración")
	root.PersistentFlags().StringVar(&o.out, "out", "text", "Formato de salida: json|text")

	root.AddCommand(
		newAdaptersCmd(o),
		newProvisionCmd(o),
		newServeCmd(o),
		newUserCmd(o),
		newRoleCmd(o),
	)
	return root
}

// load lee los .env, la configuración e inicializa el logger. Los .env no
// pisan variables ya definidas en el entorno.
func (o *rootOptions) load() error {
	if o.cfg != nil {
		return nil
	}
	for _, f := range o.envFiles {
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("env file %s: %w", f, err)
		}
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "identityctl"})
	o.cfg = cfg
	return nil
}

// withApp arma la aplicación, ejecuta fn y la cierra.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	if err := o.load(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.ToContext(ctx, logger.Named("cli").With(logger.Op(cmd.CommandPath())))
	a, err := app.Build(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// print escribe v como JSON indentado (out=json o sin text) o usa text.
func (o *rootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.out == "json" || text == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// checkWrite convierte el par (Result, error) de una escritura en error.
func checkWrite(res storage.Result, err error) error {
	if err != nil {
		return err
	}
	return res.Err()
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
