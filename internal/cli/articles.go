package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewArticlesCmd создаёт группу команд для запланированных статей.
func NewArticlesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "Manage scheduled articles",
	}

	cmd.AddCommand(
		newScheduledListCmd(clientFn, outputFn),
		newScheduleCmd(clientFn, outputFn),
		newUnscheduleCmd(clientFn, outputFn),
	)

	return cmd
}

func newScheduledListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "scheduled",
		Short: "List articles waiting to be published",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			articles, err := clientFn().ListScheduled(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "TITLE", "AUTHOR", "SCHEDULED_AT", "READY"}
			rows := make([][]string, len(articles))
			for i, a := range articles {
				rows[i] = []string{
					a.ID, a.Title, a.Author, orDash(a.ScheduledPublishAt),
					strconv.FormatBool(a.ReadyToPublish),
				}
			}

			outputFn().Print(headers, rows, articles)
			return nil
		},
	}
}

func newScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "schedule ARTICLE_ID",
		Short: "Schedule an article for publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at %q, expected RFC3339 (e.g. 2026-01-01T05:30:00+05:30)", at)
			}

			a, err := clientFn().Schedule(cmd.Context(), args[0], when)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Article %s scheduled", a.ID))
			out.Fields([][2]string{
				{"ID", a.ID},
				{"Title", a.Title},
				{"Scheduled at", a.ScheduledPublishAt},
			}, a)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Publication time, RFC3339")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func newUnscheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule ARTICLE_ID",
		Short: "Cancel a pending publication",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := clientFn().Unschedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Article %s unscheduled", a.ID))
			return nil
		},
	}
}
