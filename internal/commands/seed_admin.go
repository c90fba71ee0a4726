package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/you/schoolsvc/domain"
	"github.com/you/schoolsvc/internal/app"
)

// PasswordEnv carries the admin password so it stays out of shell history
const PasswordEnv = "ADMIN_PASSWORD"

// NewSeedAdminCommand creates the first admin account when none exists
func NewSeedAdminCommand() *cobra.Command {
	var email, first, last string

	cmd := &cobra.Command{
		Use:     "seed-admin",
		Short:   "Create the first admin account",
		Example: "  " + PasswordEnv + "=... schoolctl seed-admin --email admin@school.test",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(PasswordEnv)
			if email == "" || password == "" {
				return fmt.Errorf("--email and %s are required", PasswordEnv)
			}
			in := domain.RegisterInput{Email: email, Password: password, FirstName: first, LastName: last}
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, log *logrus.Logger) error {
				return seedAdmin(ctx, c.AuthSvc, log, in)
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email")
	cmd.Flags().StringVar(&first, "first", "Admin", "first name")
	cmd.Flags().StringVar(&last, "last", "User", "last name")
	return cmd
}

// seedAdmin is idempotent: an existing admin is reported, not an error
func seedAdmin(ctx context.Context, auth domain.AuthService, log logrus.FieldLogger, in domain.RegisterInput) error {
	user, err := auth.CreateAdmin(ctx, in)
	switch {
	case errors.Is(err, domain.ErrAdminAlreadyExists):
		log.Info("admin already exists, nothing to do")
		return nil
	case err != nil:
		return fmt.Errorf("create admin: %w", err)
	}
	log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("admin created")
	return nil
}
