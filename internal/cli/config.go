package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alnah/speechdataset/internal/config"
)

// validConfigKeys lists all supported configuration keys.
var validConfigKeys = []string{
	config.KeyArchiveRoot,
	config.KeyContentsRoot,
	config.KeyWorkers,
}

// configEnv maps each key to its environment variable fallback.
var configEnv = map[string]string{
	config.KeyArchiveRoot:  config.EnvArchiveRoot,
	config.KeyContentsRoot: config.EnvContentsRoot,
	config.KeyWorkers:      config.EnvWorkers,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/speechdataset/config.
Settings can also be provided via environment variables.

Supported settings:
  archive-root    Where dataset archives are written (env: SPEECHDATASET_ARCHIVE_ROOT)
  contents-root   Where dataset contents are unpacked (env: SPEECHDATASET_CONTENTS_ROOT)
  workers         Items prepared in parallel (env: SPEECHDATASET_WORKERS)`,
		Example: `  speechdataset config set contents-root ~/datasets
  speechdataset config set archive-root s3://bucket/speech
  speechdataset config get workers
  speechdataset config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Supported keys:
  archive-root    Local directory or URL prefix for archives
  contents-root   Local directory for contents
  workers         Positive integer

Local directories will be created if they don't exist.`,
		Example: `  speechdataset config set contents-root ~/datasets
  speechdataset config set workers 8`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return runConfigSet(env, key, value)
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  speechdataset config get contents-root`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  speechdataset config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w %q (valid keys: %v)", ErrUnknownConfigKey, key, validConfigKeys)
	}

	// Key-specific validation.
	switch key {
	case config.KeyArchiveRoot:
		if isRemote(value) {
			break
		}
		fallthrough
	case config.KeyContentsRoot:
		expanded := config.ExpandPath(value)
		if err := config.EnsureDir(expanded); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		value = expanded
	case config.KeyWorkers:
		n, err := config.ParseWorkers(value)
		if err != nil {
			return err
		}
		value = fmt.Sprint(n)
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("%w %q (valid keys: %v)", ErrUnknownConfigKey, key, validConfigKeys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		value = env.Getenv(configEnv[key])
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	// Add environment variable values for completeness.
	for _, key := range validConfigKeys {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(configEnv[key]); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range validConfigKeys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}

	return nil
}

// isValidConfigKey checks if a key is a valid configuration key.
func isValidConfigKey(key string) bool {
	return slices.Contains(validConfigKeys, key)
}
