package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the web front end command
func NewServeCommand(deps ContainerFunc) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser chat page",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := deps(cmd.Context())
			if err != nil {
				return err
			}
			server, err := container.NewWebServer(listen)
			if err != nil {
				return err
			}

			address := listen
			if address == "" {
				address = container.Config.Server.Listen
			}
			pterm.Fprintln(cmd.OutOrStdout(), pterm.FgCyan.Sprint("DataTalk listening on http://"+address))
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default from server.listen)")
	return cmd
}
