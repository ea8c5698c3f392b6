package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/datatalk/internal/app"
	"github.com/doeshing/datatalk/internal/application/query"
	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/infrastructure/cli/helpers"
)

// NewAskCommand creates the one-shot ask command
func NewAskCommand(deps ContainerFunc) *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the backend a question about your data",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Ask(cmd, deps, strings.Join(args, " "), html)
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Print the HTML table fragment instead of a text table")
	return cmd
}

// Ask submits a single question and prints the answer. A failed submission
// is returned as an error so scripts see a non-zero exit.
func Ask(cmd *cobra.Command, deps ContainerFunc, input string, html bool) error {
	container, err := deps(cmd.Context())
	if err != nil {
		return err
	}
	ctrl := container.NewController(helpers.NewSpinner(cmd.ErrOrStderr(), SpinnerLabel))
	outcome, sent := submit(cmd, ctrl, input, html, container)
	if sent && outcome.Failed() {
		return fmt.Errorf("question failed: %w", outcome.Err)
	}
	return nil
}

// submit sends one question and prints its outcome. Blank input prints nothing.
func submit(cmd *cobra.Command, ctrl *query.Controller, input string, html bool, container *app.Container) (domain.Outcome, bool) {
	outcome, sent := ctrl.Submit(cmd.Context(), input)
	if !sent {
		return outcome, false
	}
	out := cmd.OutOrStdout()
	if err := helpers.PrintOutcome(out, outcome, html); err != nil {
		container.Logger.Warn("print outcome", map[string]interface{}{"error": err.Error()})
	}
	if outcome.Failed() {
		helpers.PrintNetworkHint(cmd.ErrOrStderr(), outcome.Err, container.Config.Backend.BaseURL)
	}
	return outcome, true
}
