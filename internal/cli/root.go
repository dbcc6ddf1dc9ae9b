package cli

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"vocaloop/internal/bootstrap"
	"vocaloop/internal/config"
	"vocaloop/internal/output"
	"vocaloop/internal/version"
)

type Dependencies struct {
	Config    config.Config
	Overrides bootstrap.Overrides
	Out       *output.Formatter
	In        io.Reader

	lines chan string
}

// Services wires a runtime for one command, with mode overriding the config
// when non-empty.
func (d *Dependencies) Services(mode string) (bootstrap.Services, error) {
	cfg := d.Config
	overrides := d.Overrides
	if mode != "" {
		overrides.Mode = mode
	}
	overrides.Apply(&cfg)
	return bootstrap.Assemble(cfg, d.Out, nil)
}

// readLine returns the next trimmed input line. ok is false on EOF or when
// ctx is done.
func (d *Dependencies) readLine(ctx context.Context) (string, bool) {
	if d.lines == nil {
		d.lines = make(chan string)
		go func() {
			defer close(d.lines)
			scanner := bufio.NewScanner(d.In)
			for scanner.Scan() {
				d.lines <- strings.TrimSpace(scanner.Text())
			}
		}()
	}

	select {
	case line, ok := <-d.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vocaloop",
		Short:         "Talk to the voice agent from a terminal",
		Long:          "Record speech, send it to the voice agent backend and play the synthesized reply.\nConversations are keyed by a session id that can be shared and resumed.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&deps.Overrides.SessionID, "session-id", "", "Resume an existing conversation")
	flags.StringVar(&deps.Overrides.VoiceID, "voice", "", "Voice used for synthesized replies")
	flags.StringVar(&deps.Overrides.BackendURL, "backend", "", "Backend base URL")

	rootCmd.AddCommand(NewSpeakCmd(deps))
	rootCmd.AddCommand(NewTurnCmd(deps, "echo"))
	rootCmd.AddCommand(NewTurnCmd(deps, "chat"))
	rootCmd.AddCommand(NewHistoryCmd(deps))
	rootCmd.AddCommand(NewSessionCmd(deps))

	return rootCmd
}
