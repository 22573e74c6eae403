// Package cli implements the shelflife command line. Every command drives one
// of the screen controllers from internal/viewmodel.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/shelflife/internal/apperr"
)

// NewRootCommand builds the command tree. Configuration, logging and the
// database are set up before any subcommand runs and torn down after it.
func NewRootCommand() *cobra.Command {
	var a *app

	root := &cobra.Command{
		Use:           "shelflife",
		Short:         "Track perishable food and get reminded before it expires.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			return err
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true

	// run hands the app to a command body and releases it afterwards, also
	// when the body fails.
	run := func(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			defer a.close()
			return fn(a, cmd, args)
		}
	}
	root.AddCommand(
		newAddCmd(run),
		newListCmd(run),
		newEditCmd(run),
		newDeleteCmd(run),
		newAlertsCmd(run),
		newDismissCmd(run),
		newRemindCmd(run),
	)
	return root
}

type runner func(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error

// controllerError turns a controller's terminal error into a command error
// carrying the recovery suggestion.
func controllerError(err *apperr.Error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s (%s)", err.Description(), err.RecoverySuggestion())
}
