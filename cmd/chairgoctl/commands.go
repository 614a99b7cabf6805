package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/chairgo/internal/config"
	"github.com/geocoder89/chairgo/internal/db"
	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/repo/postgres"
	"github.com/geocoder89/chairgo/internal/security"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chairgoctl",
		Short:         "Admin tasks for the ChairGo API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newSeedAdminCmd(),
		newCreateAdminCmd(),
		newHashPasswordCmd(),
	)

	return root
}

// withPool opens the configured database for the duration of fn.
func withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	return fn(ctx, pool)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				if err := db.Migrate(ctx, pool); err != nil {
					return err
				}
				cmd.Println("schema up to date")
				return nil
			})
		},
	}
}

func newSeedAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Ensure the admin from ADMIN_USERNAME/ADMIN_EMAIL/ADMIN_PASSWORD exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()

			return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				created, err := db.EnsureAdminUser(ctx, postgres.NewUsersRepo(pool, nil), db.AdminSeed{
					Username: cfg.AdminUsername,
					Email:    cfg.AdminEmail,
					Password: cfg.AdminPassword,
				})
				if err != nil {
					return err
				}
				if created {
					cmd.Printf("created admin %q\n", cfg.AdminUsername)
				} else {
					cmd.Printf("admin %q already present\n", cfg.AdminUsername)
				}
				return nil
			})
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(username) < 3 {
				return errors.New("--username must be at least 3 characters")
			}
			if strings.Contains(username, "@") {
				return errors.New("--username must not contain @")
			}
			if email == "" {
				return errors.New("--email is required")
			}
			if len(password) < 6 {
				return errors.New("--password must be at least 6 characters")
			}

			hash, err := security.HashPassword(password)
			if err != nil {
				return err
			}

			return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				users := postgres.NewUsersRepo(pool, nil)

				taken, err := users.ExistsByUsernameOrEmail(ctx, username, email)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("username or email already taken")
				}

				id, err := users.Create(ctx, username, email, hash, user.RoleAdmin)
				if errors.Is(err, user.ErrAlreadyExists) {
					return fmt.Errorf("username or email already taken")
				}
				if err != nil {
					return err
				}
				cmd.Printf("created admin %q with id %d\n", username, id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")

	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <plain>",
		Short: "Print a bcrypt hash for seeding fixtures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := security.HashPassword(args[0])
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}
}
