package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errHistory = errors.New("chat history unavailable")

func NewHistoryCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the stored conversation for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := deps.Services("")
			if err != nil {
				return err
			}
			if !services.Session.Resumed {
				deps.Out.Warning("No --session-id given; a new session has no history")
			}

			view := services.History.Toggle(cmd.Context())
			if view.Error != "" {
				return errHistory
			}
			return nil
		},
	}
}
