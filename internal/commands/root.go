package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/you/schoolsvc/internal/app"
	"github.com/you/schoolsvc/internal/config"
	"github.com/you/schoolsvc/internal/logging"
)

// NewRootCmd creates the operator command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "schoolctl",
		Short:         "Operator tasks for the school service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		NewSeedAdminCommand(),
		NewRemindCommand(),
	)

	return rootCmd
}

// withContainer loads configuration, builds the container and runs fn
// against it. The container is closed on every return path.
func withContainer(ctx context.Context, fn func(ctx context.Context, c *app.Container, log *logrus.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	c, err := app.NewContainer(cfg, log)
	if err != nil {
		return fmt.Errorf("container: %w", err)
	}
	defer c.Close()

	return fn(ctx, c, log)
}
