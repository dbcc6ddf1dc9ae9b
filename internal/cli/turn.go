package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"vocaloop/internal/bootstrap"
	"vocaloop/internal/ports"
	"vocaloop/internal/usecase"
)

func NewTurnCmd(deps *Dependencies, mode string) *cobra.Command {
	var once bool

	short := "Hold a voice conversation with the agent"
	if mode == "echo" {
		short = "Record speech and hear it back in the configured voice"
	}

	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Long:  short + ".\nPress Enter to start and stop recording, type 'a' while recording to discard it and 'q' to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := deps.Services(mode)
			if err != nil {
				return err
			}
			deps.Out.SessionInfo(services.Session)
			return runTurns(cmd.Context(), deps, services, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Exit after a single turn")
	return cmd
}

func runTurns(ctx context.Context, deps *Dependencies, services bootstrap.Services, once bool) error {
	controller := services.Controller
	for {
		deps.Out.Info("Press Enter to start recording, or q to quit")
		line, ok := deps.readLine(ctx)
		if !ok || strings.EqualFold(line, "q") {
			return nil
		}

		if err := controller.Start(ctx); err != nil {
			if errors.Is(err, ports.ErrMicrophoneUnavailable) {
				return err
			}
			continue
		}

		deps.Out.Info("Press Enter to stop, or a to discard")
		line, ok = deps.readLine(ctx)
		if !ok {
			_ = controller.Abort()
			return nil
		}
		if strings.EqualFold(line, "a") {
			_ = controller.Abort()
			continue
		}

		// Failed turns may still carry audio, so playback is awaited either way.
		if _, err := controller.Stop(ctx); errors.Is(err, usecase.ErrNotRecording) {
			continue
		}
		if err := services.Player.Wait(ctx); err != nil {
			return nil
		}
		if once {
			return nil
		}
	}
}
