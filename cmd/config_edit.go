package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"patchimport/config"
)

var configEditValidateOnly bool

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active patchimport config file in your editor and validate it afterwards.

The editor is taken from $VISUAL, then $EDITOR, and defaults to vi. A missing config
file is created from the example template first. With --validate the editor is
skipped and the file is only checked.`,
	Example: `
  # Edit active config
  patchimport config edit

  # Only validate the active config
  patchimport config edit --validate
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		if configEditValidateOnly {
			return validateConfigFile(out, path)
		}

		created, err := ensureConfigFileWithTemplate(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "No config file found. Created example config at: %s\n", path)
		}

		editor, err := editorCommand(configEditor(os.Getenv), path)
		if err != nil {
			return err
		}
		editor.Stdin = cmd.InOrStdin()
		editor.Stdout = out
		editor.Stderr = cmd.ErrOrStderr()
		if err := editor.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}
		return validateConfigFile(out, path)
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)

	configEditCmd.Flags().BoolVar(&configEditValidateOnly, "validate", false, "Validate the config file without opening an editor")
}

// resolveConfigEditPath prefers the --configFile flag, then the file viper
// loaded, then $HOME/.patchimport.yaml.
func resolveConfigEditPath(flagValue, loaded string) (string, error) {
	for _, candidate := range []string{flagValue, loaded} {
		if strings.TrimSpace(candidate) != "" {
			return candidate, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".patchimport.yaml"), nil
}

// ensureConfigFileWithTemplate writes the example template to path unless a
// file already exists there. It reports whether a file was created.
func ensureConfigFileWithTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleYAML()), 0o600); err != nil {
		return false, fmt.Errorf("creating example config failed: %w", err)
	}
	return true, nil
}

func configEditor(getenv func(string) string) string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
	}
	return "vi"
}

// editorCommand splits an editor value like "code --wait" and appends path.
func editorCommand(editor, path string) (*exec.Cmd, error) {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return exec.Command(fields[0], append(fields[1:], path)...), nil
}

func validateConfigFile(out io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config failed: %w", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return fmt.Errorf("config validation failed in %s: %w", path, err)
	}

	fmt.Fprintf(out, "Configuration validated: %s\n", path)
	fmt.Fprintf(out, "Uploads: %s, database: %s, port: %d\n", cfg.Storage.UploadDir, cfg.Storage.DBPath, cfg.Server.Port)
	return nil
}
