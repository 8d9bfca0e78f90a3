package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"patchimport/config"
)

var deleteWithUploads bool

var deletePromptInput io.Reader = os.Stdin

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the complete SQLite database file",
	Long: `Destructive storage cleanup command.

This command deletes the complete SQLite database file selected by --db or
storage.db_path. With --uploads the stored upload directory is removed as well.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the configured database (requires interactive confirmation)
  patchimport delete

  # Delete a specific database and every stored upload file
  patchimport delete --db ./storage/patchimport.db --uploads
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := strings.TrimSpace(viper.GetString(config.KeyStorageDBPath))
		if dbPath == "" {
			return fmt.Errorf("no database path configured")
		}

		out := cmd.OutOrStdout()
		confirmed, err := confirmDeletePrompt(deletePromptInput, out, "database file", dbPath)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if err := removeDatabaseFile(dbPath); err != nil {
			return err
		}
		logger.Info("database deleted")
		fmt.Fprintf(out, "Deleted database file: %s\n", dbPath)

		if deleteWithUploads {
			uploadDir := strings.TrimSpace(viper.GetString(config.KeyStorageUploadDir))
			if err := removeUploadDir(uploadDir); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted upload directory: %s\n", uploadDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteWithUploads, "uploads", false, "Also delete the stored upload directory")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, label, path string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s %q? Type Y to confirm: ", label, path); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", path)
		}
		return fmt.Errorf("stat database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database file: %w", err)
	}
	// SQLite may leave journal files next to the database.
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete database side file: %w", err)
		}
	}
	return nil
}

func removeUploadDir(dir string) error {
	if dir == "" || dir == "." || dir == string(os.PathSeparator) {
		return fmt.Errorf("refusing to delete upload directory %q", dir)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat upload directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload path is not a directory: %s", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete upload directory: %w", err)
	}
	return nil
}
