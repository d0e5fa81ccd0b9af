package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSchedulerCmd создаёт группу команд управления scheduler'ом.
func NewSchedulerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control the publish scheduler",
	}

	cmd.AddCommand(
		newRunNowCmd(clientFn, outputFn),
		newStatusCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunNowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "run-now",
		Short: "Publish all due articles immediately",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := clientFn().RunNow(cmd.Context())
			if err != nil {
				return err
			}

			out := outputFn()
			out.Fields([][2]string{{"Published", strconv.Itoa(n)}}, RunNowResponse{PublishedCount: n})
			return nil
		},
	}
}

func newStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler state and last run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := clientFn().Status(cmd.Context())
			if err != nil {
				return err
			}

			pairs := [][2]string{
				{"State", st.State},
				{"Enabled", strconv.FormatBool(st.IsEnabled)},
				{"Check frequency", strconv.Itoa(st.CheckFrequencyMinutes) + "m"},
				{"Next run", orDash(st.NextRunAt)},
			}
			if r := st.LastRun; r != nil {
				pairs = append(pairs,
					[2]string{"Last run", fmt.Sprintf("%s at %s", r.Trigger, r.StartedAt)},
					[2]string{"Last run result", fmt.Sprintf("published=%d skipped=%d warnings=%d",
						r.Published, r.Skipped, r.IntegrityWarnings)},
				)
				if r.Error != "" {
					pairs = append(pairs, [2]string{"Last run error", r.Error})
				}
			}

			outputFn().Fields(pairs, st)
			return nil
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
