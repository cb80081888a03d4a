package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mobsites/Cosmos.Identity/internal/app"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
)

func newRoleCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "role", Short: "Operaciones sobre roles"}
	cmd.AddCommand(newRoleCreateCmd(o), newRoleDeleteCmd(o), newRoleUsersCmd(o))
	return cmd
}

func findRole(ctx context.Context, a *app.App, name string) (*entity.Role, error) {
	if name == "" {
		return nil, fmt.Errorf("--name is required")
	}
	r, err := a.Roles.FindByName(ctx, entity.Normalize(name))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("role %s not found", name)
	}
	return r, nil
}

func newRoleCreateCmd(o *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un rol",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if existing, err := a.Roles.FindByName(ctx, entity.Normalize(name)); err != nil {
					return err
				} else if existing != nil {
					return fmt.Errorf("role %s already exists (%s)", name, existing.ID)
				}
				r := entity.NewRole(name)
				if err := checkWrite(a.Roles.Create(ctx, r)); err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), r, func(w io.Writer) { fmt.Fprintln(w, r.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Nombre del rol")
	return cmd
}

func newRoleDeleteCmd(o *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Borra un rol, sus claims y lo quita de sus miembros",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := findRole(ctx, a, name)
				if err != nil {
					return err
				}
				if err := checkWrite(a.Roles.Delete(ctx, r)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", r.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Nombre del rol")
	return cmd
}

func newRoleUsersCmd(o *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Lista los miembros de un rol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				r, err := findRole(ctx, a, name)
				if err != nil {
					return err
				}
				users, err := a.Users.GetUsersInRole(ctx, r.NormalizedName)
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), users, func(w io.Writer) {
					for _, u := range users {
						fmt.Fprintf(w, "%s\t%s\n", u.ID, u.UserName)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Nombre del rol")
	return cmd
}
