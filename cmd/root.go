package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"patchimport/config"
	"patchimport/internal/logging"
)

var (
	cfgFile string
	verbose bool

	// logger is built in the persistent pre-run and synced in the post-run.
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "patchimport",
	Short: "Normalize patch-management reports (CSV/XLSX) into typed JSON records.",
	Long: `
**********************************************
*              PATCH IMPORT                  *
**********************************************

This CLI reads patch-management report exports, maps the known report columns to
canonical field names, coerces patch IDs and dates, and emits JSON records.
Uploads and their records can be kept in a local SQLite database and browsed in a
small web UI.

Supported input formats:
- Excel: .xlsx (first worksheet)
- CSV: .csv (UTF-8 or UTF-16 with BOM)
`,
	Example: `
  # Create configuration file
  patchimport config create

  # Print normalized records of a report as JSON
  patchimport import -i ./PatchReport.csv

  # Store an upload and its records in SQLite
  patchimport import -i ./PatchReport.xlsx --persist

  # List stored uploads and show one record set
  patchimport uploads list
  patchimport uploads show 2025-11-10_09-05-07

  # Export a stored record set to Excel
  patchimport export --upload 2025-11-10_09-05-07 --output ./patches.xlsx

  # Start the upload web UI
  patchimport serve

  # Check that the environment is ready
  patchimport check
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := config.LoadAndValidate()
		if cfgErr != nil && requiresConfig(cmd) {
			return cfgErr
		}

		level, format := "info", "console"
		if cfg != nil {
			level, format = cfg.Log.Level, cfg.Log.Format
		}
		if verbose {
			level = "debug"
		}

		built, err := logging.New(level, format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.patchimport.yaml, then ./.patchimport.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "Path to local SQLite database (overrides storage.db_path)")
	rootCmd.PersistentFlags().String("upload-dir", "", "Directory for stored uploads (overrides storage.upload_dir)")

	_ = viper.BindPFlag(config.KeyStorageDBPath, rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag(config.KeyStorageUploadDir, rootCmd.PersistentFlags().Lookup("upload-dir"))
}

// requiresConfig reports whether cmd cannot run on an invalid configuration.
// The config subcommands must stay usable so a broken file can be repaired.
func requiresConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return false
		}
	}
	return cmd != nil && cmd.HasParent() && cmd != deleteCmd && cmd.Name() != "help"
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".patchimport" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".patchimport")
	}

	if err := config.BindEnvironment(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found, using defaults. Create one with: patchimport config create")
	}
}
