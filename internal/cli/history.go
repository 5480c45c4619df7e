package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/shouni/gemini-banner-kit/pkg/intake"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List generated banners, newest first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			records, err := a.rt.Studio.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No banners yet")
				return nil
			}
			if limit > 0 && limit < len(records) {
				records = records[:limit]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTYLE\tRESOLUTION")
			for _, r := range records {
				res := string(r.Resolution)
				if res == "" {
					res = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Style, res)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Save a banner from your history to a file",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			rec, err := a.rt.Studio.Record(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			att, err := intake.ParseDataURL(rec.ID, rec.URL)
			if err != nil {
				return fmt.Errorf("record %s has an unreadable image: %w", rec.ID, err)
			}
			if output == "" {
				output = "banner-" + rec.ID + intake.Extension(att.MIMEType)
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output dir %s: %w", dir, err)
				}
			}
			if err := os.WriteFile(output, att.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default banner-<id>.<ext>)")
	return cmd
}
