package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	configapp "github.com/doeshing/datatalk/internal/application/config"
	"github.com/doeshing/datatalk/internal/domain"
	configinfra "github.com/doeshing/datatalk/internal/infrastructure/config"
)

const msgConfigurationValid = "Configuration valid"

// LoaderFunc returns the config loader honouring --config.
type LoaderFunc func() *configinfra.FileLoader

// NewConfigCommand creates the config command with all subcommands. It works
// on the file directly so a broken config can still be inspected.
func NewConfigCommand(loader LoaderFunc) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect DataTalk configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, loader())
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show full configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd, loader())
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), loader().Path())
				return nil
			},
		},
		newConfigGetCommand(loader),
		newConfigSetCommand(loader),
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the configuration file",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loader().Load(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				if err := configapp.Validate(cfg); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msgConfigurationValid)
				return nil
			},
		},
	)

	return configCmd
}

// newConfigGetCommand creates the 'config get' subcommand
func newConfigGetCommand(loader LoaderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value by dotted path (e.g. backend.base_url)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader().Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return printConfigurationValue(cmd.OutOrStdout(), cfg, args[0])
		},
	}
}

// newConfigSetCommand creates the 'config set' subcommand
func newConfigSetCommand(loader LoaderFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value (value accepts YAML syntax)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := loader()
			cfg, err := l.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			updated, err := setConfigurationValue(cfg, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if err := l.Save(updated); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
			return nil
		},
	}
}

func showConfiguration(cmd *cobra.Command, loader *configinfra.FileLoader) error {
	cfg, err := loader.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// printConfigurationValue retrieves a configuration value by key path
func printConfigurationValue(out io.Writer, cfg domain.Config, keyPath string) error {
	generic, err := configToMap(cfg)
	if err != nil {
		return err
	}
	value, found := traverseNestedMap(generic, strings.Split(keyPath, "."))
	if !found {
		return fmt.Errorf("key %s not found in configuration", keyPath)
	}
	if nested, ok := value.(map[string]interface{}); ok {
		data, err := yaml.Marshal(nested)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))
		return nil
	}
	fmt.Fprintln(out, value)
	return nil
}

// setConfigurationValue returns cfg with keyPath replaced by the YAML-parsed value.
func setConfigurationValue(cfg domain.Config, keyPath, raw string) (domain.Config, error) {
	generic, err := configToMap(cfg)
	if err != nil {
		return domain.Config{}, err
	}

	var value interface{}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		// not YAML; store the literal string
		value = raw
	}

	keys := strings.Split(keyPath, ".")
	if !setNestedMapValue(generic, keys, value) {
		return domain.Config{}, fmt.Errorf("key %s not found in configuration", keyPath)
	}

	updatedRaw, err := yaml.Marshal(generic)
	if err != nil {
		return domain.Config{}, fmt.Errorf("failed to marshal updated map: %w", err)
	}
	var updated domain.Config
	if err := yaml.Unmarshal(updatedRaw, &updated); err != nil {
		return domain.Config{}, fmt.Errorf("invalid value for %s: %w", keyPath, err)
	}
	if err := configapp.Validate(updated); err != nil {
		return domain.Config{}, fmt.Errorf("validation failed: %w", err)
	}
	return updated, nil
}

func configToMap(cfg domain.Config) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var out map[string]interface{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to map: %w", err)
	}
	return out, nil
}

func traverseNestedMap(data interface{}, keyPath []string) (interface{}, bool) {
	if len(keyPath) == 0 {
		return data, true
	}
	node, ok := data.(map[string]interface{})
	if !ok {
		return nil, false
	}
	next, exists := node[keyPath[0]]
	if !exists {
		return nil, false
	}
	return traverseNestedMap(next, keyPath[1:])
}

// setNestedMapValue only replaces existing keys so typos are reported.
func setNestedMapValue(root map[string]interface{}, keyPath []string, value interface{}) bool {
	current := root
	for i, key := range keyPath {
		if _, exists := current[key]; !exists {
			return false
		}
		if i == len(keyPath)-1 {
			current[key] = value
			return true
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}
