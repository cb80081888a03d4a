package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobsites/Cosmos.Identity/internal/app"
	"github.com/mobsites/Cosmos.Identity/internal/domain/entity"
	"github.com/mobsites/Cosmos.Identity/internal/identity"
	"github.com/mobsites/Cosmos.Identity/internal/security/password"
)

var errUserNotFound = errors.New("user not found")

// userRef identifica un usuario por id, nombre o email (en ese orden).
type userRef struct {
	id, name, email string
}

func (r *userRef) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.id, "id", "", "Id del usuario")
	cmd.Flags().StringVar(&r.name, "name", "", "UserName (se normaliza)")
	cmd.Flags().StringVar(&r.email, "email", "", "Email (se normaliza)")
}

func (r *userRef) resolve(ctx context.Context, a *app.App) (*entity.User, error) {
	var (
		u   *entity.User
		err error
	)
	switch {
	case r.id != "":
		u, err = a.Users.FindByID(ctx, r.id)
	case r.name != "":
		u, err = a.Users.FindByName(ctx, entity.Normalize(r.name))
	case r.email != "":
		u, err = a.Users.FindByEmail(ctx, entity.Normalize(r.email))
	default:
		return nil, fmt.Errorf("one of --id, --name or --email is required")
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errUserNotFound
	}
	return u, nil
}

func newUserCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Operaciones sobre usuarios"}
	cmd.AddCommand(
		newUserCreateCmd(o),
		newUserGetCmd(o),
		newUserDeleteCmd(o),
		newUserRoleCmd(o, "add-role", "Agrega el usuario a un rol", (*identity.UserStore).AddToRole),
		newUserRoleCmd(o, "remove-role", "Quita el usuario de un rol", (*identity.UserStore).RemoveFromRole),
		newUserRolesCmd(o),
		newUserAddClaimCmd(o),
		newUserClaimsCmd(o),
	)
	return cmd
}

func newUserCreateCmd(o *rootOptions) *cobra.Command {
	var name, email, plain string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Crea un usuario (con password argon2id opcional)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			u := entity.NewUser(name)
			if email != "" {
				u.Email = email
				u.NormalizedEmail = entity.Normalize(email)
			}
			if plain != "" {
				h, err := password.DefaultPolicy.HashChecked(plain)
				if err != nil {
					return err
				}
				u.PasswordHash = h
			}
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if existing, err := a.Users.FindByName(ctx, u.NormalizedUserName); err != nil {
					return err
				} else if existing != nil {
					return fmt.Errorf("user %s already exists (%s)", name, existing.ID)
				}
				if err := checkWrite(a.Users.Create(ctx, u)); err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), u, func(w io.Writer) { fmt.Fprintln(w, u.ID) })
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "UserName")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().StringVar(&plain, "password", "", "Password en claro; se guarda el hash argon2id")
	return cmd
}

func newUserGetCmd(o *rootOptions) *cobra.Command {
	var ref userRef
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Muestra un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := ref.resolve(ctx, a)
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), u, func(w io.Writer) {
					fmt.Fprintf(w, "%s\t%s\t%s\troles=%s\n", u.ID, u.UserName, u.Email, strings.Join(u.RoleNames(), ","))
				})
			})
		},
	}
	ref.bind(cmd)
	return cmd
}

func newUserDeleteCmd(o *rootOptions) *cobra.Command {
	var ref userRef
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Borra un usuario y sus vínculos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := ref.resolve(ctx, a)
				if err != nil {
					return err
				}
				if err := checkWrite(a.Users.Delete(ctx, u)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", u.ID)
				return nil
			})
		},
	}
	ref.bind(cmd)
	return cmd
}

func newUserRoleCmd(o *rootOptions, use, short string, op func(*identity.UserStore, context.Context, *entity.User, string) error) *cobra.Command {
	var (
		ref  userRef
		role string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "" {
				return fmt.Errorf("--role is required")
			}
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := ref.resolve(ctx, a)
				if err != nil {
					return err
				}
				if err := op(a.Users, ctx, u, entity.Normalize(role)); err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), u.RoleNames(), func(w io.Writer) {
					fmt.Fprintln(w, strings.Join(u.RoleNames(), ","))
				})
			})
		},
	}
	ref.bind(cmd)
	cmd.Flags().StringVar(&role, "role", "", "Nombre del rol (se normaliza)")
	return cmd
}

func newUserRolesCmd(o *rootOptions) *cobra.Command {
	var ref userRef
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Lista los roles de un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := ref.resolve(ctx, a)
				if err != nil {
					return err
				}
				roles, err := a.Users.GetRoles(ctx, u)
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), roles, func(w io.Writer) {
					for _, r := range roles {
						fmt.Fprintln(w, r)
					}
				})
			})
		},
	}
	ref.bind(cmd)
	return cmd
}

func newUserAddClaimCmd(o *rootOptions) *cobra.Command {
	var (
		ref        userRef
		typ, value string
	)
	cmd := &cobra.Command{
		Use:   "add-claim",
		Short: "Agrega un claim al usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := ref.resolve(ctx, a)
				if err != nil {
					return err
				}
				return a.Users.AddClaims(ctx, u, []entity.Claim{{Type: typ, Value: value}})
			})
		},
	}
	ref.bind(cmd)
	cmd.Flags().StringVar(&typ, "type", "", "Tipo del claim")
	cmd.Flags().StringVar(&value, "value", "", "Valor del claim")
	return cmd
}

func newUserClaimsCmd(o *rootOptions) *cobra.Command {
	var ref userRef
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Lista los claims de un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
				u, err := ref.resolve(ctx, a)
				if err != nil {
					return err
				}
				claims, err := a.Users.GetClaims(ctx, u)
				if err != nil {
					return err
				}
				return o.print(cmd.OutOrStdout(), claims, func(w io.Writer) {
					for _, c := range claims {
						fmt.Fprintf(w, "%s=%s\n", c.Type, c.Value)
					}
				})
			})
		},
	}
	ref.bind(cmd)
	return cmd
}
