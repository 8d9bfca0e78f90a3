package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"patchimport/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Values coming from
defaults or environment variables are shown as well.`,
	Example: `
  # Show active configuration
  patchimport config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Fprintln(out, "Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Fprintln(out, "Config file loaded from:", configPath)
		} else {
			fmt.Fprintln(out, "No config file loaded, showing defaults and environment overrides.")
		}
		fmt.Fprintln(out, "Configuration:")
		fmt.Fprintf(out, "%s: %s\n", config.KeyStorageUploadDir, cfg.Storage.UploadDir)
		fmt.Fprintf(out, "%s: %s\n", config.KeyStorageDBPath, cfg.Storage.DBPath)
		fmt.Fprintf(out, "%s: %d\n", config.KeyServerPort, cfg.Server.Port)
		fmt.Fprintf(out, "%s: %d\n", config.KeyServerMaxUploadMB, cfg.Server.MaxUploadMB)
		fmt.Fprintf(out, "%s: %s\n", config.KeyLogLevel, cfg.Log.Level)
		fmt.Fprintf(out, "%s: %s\n", config.KeyLogFormat, cfg.Log.Format)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
