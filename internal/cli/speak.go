package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func NewSpeakCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "speak TEXT...",
		Short: "Convert text to speech and play it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := deps.Services("")
			if err != nil {
				return err
			}

			// One-shot speech does not re-arm the recording loop.
			services.Player.OnEnded(nil)

			ctx := cmd.Context()
			if _, err := services.Speaker.Speak(ctx, strings.Join(args, " "), services.Config.Session.VoiceID); err != nil {
				return err
			}
			return services.Player.Wait(ctx)
		},
	}
}
