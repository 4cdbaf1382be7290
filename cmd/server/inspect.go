package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/sheetedit/internal/core"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var (
		thumbnails bool
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.xlsx>",
		Short: "Print a workbook as the JSON the upload endpoint returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			inspectCfg := *cfg
			inspectCfg.Thumbnail.Enabled = thumbnails
			service := core.NewService(&inspectCfg, core.NewThumbnailFetcher(inspectCfg.Thumbnail), nil)

			res, err := service.Ingest(cmd.Context(), filepath.Base(path), f)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(map[string]any{
				"data":    res.Table.Rows,
				"columns": res.Table.Columns,
			})
		},
	}

	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "Fetch thumbnails for image URLs")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}
