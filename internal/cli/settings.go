package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSettingsCmd создаёт группу команд для настроек автопубликации.
func NewSettingsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change auto-publish settings",
	}

	cmd.AddCommand(
		newSettingsShowCmd(clientFn, outputFn),
		newSettingsUpdateCmd(clientFn, outputFn),
		newSettingsToggleCmd("enable", "Turn auto-publish on", true, clientFn, outputFn),
		newSettingsToggleCmd("disable", "Turn auto-publish off", false, clientFn, outputFn),
	)

	return cmd
}

func printSettings(out *Output, s *SettingsResponse) {
	out.Fields([][2]string{
		{"Enabled", strconv.FormatBool(s.IsEnabled)},
		{"Check frequency", strconv.Itoa(s.CheckFrequencyMinutes) + "m"},
	}, s)
}

func newSettingsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := clientFn().GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			printSettings(outputFn(), s)
			return nil
		},
	}
}

func newSettingsUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var enabled bool
	var frequency int

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update settings (frequency: 1, 5, 15, 30 or 60 minutes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req UpdateSettingsRequest
			if cmd.Flags().Changed("enabled") {
				req.IsEnabled = &enabled
			}
			if cmd.Flags().Changed("frequency") {
				req.CheckFrequencyMinutes = &frequency
			}
			if req.IsEnabled == nil && req.CheckFrequencyMinutes == nil {
				return errors.New("nothing to update: pass --enabled and/or --frequency")
			}

			s, err := clientFn().UpdateSettings(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success("Settings updated")
			printSettings(out, s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", false, "Enable or disable auto-publish")
	cmd.Flags().IntVar(&frequency, "frequency", 0, "Check frequency in minutes")

	return cmd
}

func newSettingsToggleCmd(use, short string, enabled bool, clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := clientFn().UpdateSettings(cmd.Context(), UpdateSettingsRequest{IsEnabled: &enabled})
			if err != nil {
				return err
			}
			printSettings(outputFn(), s)
			return nil
		},
	}
}
