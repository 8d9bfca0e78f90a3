package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"patchimport/config"
	"patchimport/storage"
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List, show and delete stored uploads.",
	Long: `Inspect the uploads kept in the SQLite database.

Each upload is identified by its upload time (YYYY-MM-DD_HH-MM-SS), with a short
random suffix when two uploads arrived within the same second.`,
	Example: `
  # List uploads, newest first
  patchimport uploads list

  # Print the normalized records of one upload
  patchimport uploads show 2025-11-10_09-05-07

  # Delete an upload, its records and its stored file
  patchimport uploads delete 2025-11-10_09-05-07

  # Delete every upload
  patchimport uploads delete --all
`,
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored uploads, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		uploads, err := newUploadService(cfg, store).List()
		if err != nil {
			return err
		}
		return printUploads(cmd.OutOrStdout(), uploads)
	},
}

var uploadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the normalized records of an upload as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		data, err := newUploadService(cfg, store).RecordsJSON(strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, data, "", "  "); err != nil {
			return fmt.Errorf("format records: %w", err)
		}
		pretty.WriteByte('\n')
		_, err = pretty.WriteTo(cmd.OutOrStdout())
		return err
	},
}

var uploadsDeleteAll bool

var uploadsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an upload, its records and its stored file.",
	Args: func(cmd *cobra.Command, args []string) error {
		if uploadsDeleteAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		service := newUploadService(cfg, store)
		if uploadsDeleteAll {
			removed, err := service.DeleteAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted uploads: %d\n", removed)
			return nil
		}

		id := strings.TrimSpace(args[0])
		if err := service.Delete(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted upload: %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadsCmd)
	uploadsCmd.AddCommand(uploadsListCmd)
	uploadsCmd.AddCommand(uploadsShowCmd)
	uploadsCmd.AddCommand(uploadsDeleteCmd)

	uploadsDeleteCmd.Flags().BoolVar(&uploadsDeleteAll, "all", false, "Delete every stored upload")
}

func printUploads(w io.Writer, uploads []storage.Upload) error {
	if len(uploads) == 0 {
		_, err := fmt.Fprintln(w, "No uploads stored.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tTYPE\tUPLOADED AT\tSIZE KB\tSTATUS\tRECORDS")
	for _, item := range uploads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\t%d\n",
			item.ID,
			item.OriginalName,
			item.Format,
			item.UploadedAt.Local().Format("2006-01-02 15:04:05"),
			float64(item.SizeBytes)/1024,
			item.Status,
			item.RecordCount,
		)
	}
	return tw.Flush()
}
