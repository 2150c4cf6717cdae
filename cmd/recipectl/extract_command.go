package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/anatolykoptev/go_recipe/internal/engine/recipe"
	"github.com/anatolykoptev/go_recipe/internal/service"
	"github.com/spf13/cobra"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var asJSON, publish, refresh bool

	cmd := &cobra.Command{
		Use:   "extract <youtube-url>",
		Short: "Run the pipeline for one video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}
			out, runErr := svc.Extract(cmd.Context(), service.ExtractInput{URL: args[0], Publish: publish, Refresh: refresh})
			if asJSON {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				printRecipe(cmd.OutOrStdout(), out)
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&publish, "publish", false, "Send the completed recipe to the Foody API")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore cached results")
	return cmd
}

func printRecipe(w io.Writer, out *service.ExtractOutput) {
	r := out.Recipe
	title := r.Title
	if title == "" {
		title = r.SourceReference
	}
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "ID: %s  Status: %s", r.ID, r.Status)
	if out.Cached {
		fmt.Fprint(w, "  (cached)")
	}
	if r.Demo {
		fmt.Fprint(w, "  (demo)")
	}
	fmt.Fprintln(w)

	if r.Status == recipe.StatusFailed {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}
	if r.Cuisine != nil {
		fmt.Fprintf(w, "Cuisine: %s (%s) %.0f%%\n", r.Cuisine.Label, r.Cuisine.Label.Korean(), r.Cuisine.Confidence*100)
		if r.Cuisine.Rationale != "" {
			fmt.Fprintf(w, "  %s\n", r.Cuisine.Rationale)
		}
	}

	rows := make([][]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		rows[i] = []string{fmt.Sprint(i + 1), ing.Name, ing.OriginalName, fmt.Sprintf("%.2f", ing.Confidence)}
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Ingredient", "Original", "Confidence"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight}))

	switch {
	case out.Published:
		fmt.Fprintln(w, "Published to Foody API")
	case out.PublishError != "":
		fmt.Fprintf(w, "Publish failed: %s\n", strings.TrimSpace(out.PublishError))
	}
}
