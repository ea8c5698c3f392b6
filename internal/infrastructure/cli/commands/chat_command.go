package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/datatalk/internal/infrastructure/cli/helpers"
)

// NewChatCommand creates the interactive chat loop
func NewChatCommand(deps ContainerFunc) *cobra.Command {
	var html bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := deps(cmd.Context())
			if err != nil {
				return err
			}
			ctrl := container.NewController(helpers.NewSpinner(cmd.ErrOrStderr(), SpinnerLabel))
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Connected to %s. Type %s to quit.\n", container.Backend.Endpoint(), ChatExit)
			stop := make(chan struct{})
			defer close(stop)
			lines, readErr := readLines(cmd.InOrStdin(), stop)
			for {
				fmt.Fprint(out, ChatPrompt)
				var (
					line string
					ok   bool
				)
				select {
				case <-cmd.Context().Done():
					fmt.Fprintln(out)
					return cmd.Context().Err()
				case line, ok = <-lines:
				}
				if !ok {
					fmt.Fprintln(out)
					return <-readErr
				}
				if strings.TrimSpace(line) == ChatExit {
					return nil
				}
				if _, sent := submit(cmd, ctrl, line, html, container); sent {
					fmt.Fprintln(out)
				}
				if err := cmd.Context().Err(); err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().BoolVar(&html, "html", false, "Print HTML table fragments instead of text tables")
	return cmd
}

// readLines feeds stdin lines to the chat loop so a pending read never blocks
// cancellation. The error channel yields the scanner error after lines closes.
func readLines(in io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		errs <- scanner.Err()
	}()
	return lines, errs
}
