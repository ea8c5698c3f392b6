package cli

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/doeshing/datatalk/internal/app"
	"github.com/doeshing/datatalk/internal/infrastructure/cli/commands"
	"github.com/doeshing/datatalk/internal/infrastructure/config"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// Root is the command tree plus the container it lazily builds.
type Root struct {
	*cobra.Command

	opts       Options
	configPath string

	once      sync.Once
	container *app.Container
	err       error
}

// NewRootCmd wires the cobra root command. The container is built on first
// use, after flags are parsed.
func NewRootCmd(opts Options) *Root {
	r := &Root{opts: opts}

	root := &cobra.Command{
		Use:   "datatalk [question]",
		Short: "DataTalk - ask questions about your data",
		Long:  "DataTalk sends natural-language questions to a query backend and renders the answer as a summary and a table.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return commands.Ask(cmd, r.containerFor, strings.Join(args, " "), false)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&r.configPath, "config", "", "Config file (default ~/.datatalk/config.yaml, or $DATATALK_CONFIG)")
	root.PersistentFlags().BoolVarP(&r.opts.Verbose, "verbose", "v", opts.Verbose, "Enable debug logging")

	root.AddCommand(
		commands.NewAskCommand(r.containerFor),
		commands.NewChatCommand(r.containerFor),
		commands.NewServeCommand(r.containerFor),
		commands.NewHistoryCommand(r.containerFor),
		commands.NewCacheCommand(r.containerFor),
		commands.NewDoctorCommand(r.containerFor),
		commands.NewConfigCommand(r.loader),
		commands.NewVersionCommand(),
	)

	r.Command = root
	return r
}

func (r *Root) containerFor(ctx context.Context) (*app.Container, error) {
	r.once.Do(func() {
		r.container, r.err = app.BuildContainer(ctx, app.Options{
			ConfigPath: r.configPath,
			Verbose:    r.opts.Verbose,
		})
	})
	return r.container, r.err
}

func (r *Root) loader() *config.FileLoader {
	return config.NewFileLoader(r.configPath)
}

// Close releases whatever the container opened.
func (r *Root) Close() error {
	if r.container == nil {
		return nil
	}
	return r.container.Close()
}
