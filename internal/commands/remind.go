package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/you/schoolsvc/internal/app"
)

// NewRemindCommand sends overdue payment reminders once and exits
func NewRemindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send overdue payment reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container, log *logrus.Logger) error {
				report, err := c.Reminders.Run(ctx)
				if err != nil {
					return fmt.Errorf("remind: %w", err)
				}
				log.WithFields(logrus.Fields{
					"overdue":  report.Overdue,
					"students": report.Students,
					"sms":      report.SMSSent,
					"email":    report.EmailsSent,
					"failed":   report.Failures,
				}).Info("reminders sent")
				return nil
			})
		},
	}
}
