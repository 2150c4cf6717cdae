package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <youtube-url>",
		Short: "Show caption languages and metadata without analyzing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}
			info, err := svc.VideoInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, info)
			}

			w := cmd.OutOrStdout()
			rows := [][]string{{"Video ID", info.VideoID}}
			if m := info.Metadata; m != nil {
				rows = append(rows, []string{"Title", m.Title}, []string{"Channel", m.AuthorName}, []string{"Thumbnail", m.ThumbnailURL})
			}
			langs := strings.Join(info.Languages, ", ")
			if langs == "" {
				langs = "none"
			}
			rows = append(rows, []string{"Captions", langs})
			fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
			for _, warn := range info.Warnings {
				fmt.Fprintf(w, "warning: %s\n", warn)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
