package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage patchimport configuration file values.",
	Long: `Create, edit, display, and delete the patchimport configuration file.

The configuration stores application-wide values:
- storage.upload_dir / storage.db_path
- server.port / server.max_upload_mb
- log.level / log.format

Every key can be overridden by an environment variable with the PATCHIMPORT_ prefix,
for example PATCHIMPORT_SERVER_PORT=9090. A .env file in the working directory is
loaded first.`,
	Example: `
  # Create default config in $HOME/.patchimport.yaml
  patchimport config create

  # Show active config and source file
  patchimport config show

  # Open active config in editor (creates example if missing)
  patchimport config edit

  # Delete active config file
  patchimport config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
