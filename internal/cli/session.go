package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewSessionCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the session id and its shareable link",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := deps.Services("")
			if err != nil {
				return errors.Wrap(err, "resolve session")
			}
			deps.Out.SessionInfo(services.Session)
			return nil
		},
	}
}
