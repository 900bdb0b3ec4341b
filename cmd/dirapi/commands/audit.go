package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

const actorDisplayLength = 30

// NewAuditCommand creates the audit command group.
func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit",
		Aliases: []string{"logs"},
		Short:   "Read the audit log",
		Long:    "Read audit events describing changes and sign-ins in the directory",
	}

	cmd.AddCommand(newAuditEventsCommand())

	return cmd
}

func newAuditEventsCommand() *cobra.Command {
	var (
		opts  dirapi.AuditEventListOptions
		since string
		until string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List audit events",
		Long: `List audit events across every page.

--since and --until accept an RFC3339 timestamp or a duration measured back
from now, for example --since 24h.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()

			var err error

			opts.Since, err = parseTimeFlag(since, now)
			if err != nil {
				return err
			}

			opts.Until, err = parseTimeFlag(until, now)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			events, err := client.AuditEvents().List(cmd.Context(), &opts)
			if err != nil {
				return fmt.Errorf("failed to list audit events: %w", err)
			}

			return render(cmd, events, func(out io.Writer) error {
				if len(events) == 0 {
					_, _ = io.WriteString(out, "No audit events found\n")

					return nil
				}

				return renderAuditEventsTable(out, events)
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "only events at or after this time")
	cmd.Flags().StringVar(&until, "until", "", "only events before this time")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", `filter expression, e.g. 'eventType eq "user.session.start"'`)
	cmd.Flags().StringVarP(&opts.Q, "query", "q", "", "keyword search")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size requested from the service")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "maximum pages to fetch (0 uses the configured cap)")

	return cmd
}

func renderAuditEventsTable(out io.Writer, events []dirapi.AuditEvent) error {
	rows := make([][]string, 0, len(events))

	for _, event := range events {
		outcome := constants.NotAvailable
		if event.Outcome != nil {
			outcome = event.Outcome.Result
		}

		published := event.Published

		rows = append(rows, []string{
			formatTime(&published),
			event.EventType,
			event.Severity,
			formatActor(event.Actor),
			outcome,
		})
	}

	return renderTable(out, []string{"Published", "Event Type", "Severity", "Actor", "Outcome"}, rows)
}

func formatActor(actor dirapi.AuditEventActor) string {
	name := actor.AlternateID
	if name == "" {
		name = actor.DisplayName
	}

	info := fmt.Sprintf("%s (%s)", valueOrNA(name), actor.Type)
	if len(info) > actorDisplayLength {
		return info[:actorDisplayLength-3] + "..."
	}

	return info
}
