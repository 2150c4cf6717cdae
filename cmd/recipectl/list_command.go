package main

import (
	"fmt"

	"github.com/anatolykoptev/go_recipe/internal/engine"
	"github.com/anatolykoptev/go_recipe/internal/engine/recipe"
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var status, cuisine string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.service(cmd.Context())
			if err != nil {
				return err
			}
			f := recipe.ListFilter{Status: recipe.Status(status), Limit: limit}
			if cuisine != "" {
				f.Cuisine = recipe.ParseCuisineLabel(cuisine)
			}
			list, err := svc.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if asJSON {
				if list == nil {
					list = []*recipe.RecipeResult{}
				}
				return writeJSON(cmd, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recipes stored.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Created", "Status", "Cuisine", "Ingredients", "Title"},
				recipeRows(list),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (completed, failed)")
	cmd.Flags().StringVar(&cuisine, "cuisine", "", "Filter by cuisine (e.g. Korean, 한식)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func recipeRows(list []*recipe.RecipeResult) [][]string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		cuisine := "-"
		if r.Cuisine != nil {
			cuisine = fmt.Sprintf("%s %.2f", r.Cuisine.Label, r.Cuisine.Confidence)
		}
		title := r.Title
		if title == "" {
			title = r.SourceReference
		}
		rows = append(rows, []string{
			r.ID[:min(8, len(r.ID))],
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Status),
			cuisine,
			fmt.Sprint(len(r.Ingredients)),
			engine.TruncateRunes(title, 40, "…"),
		})
	}
	return rows
}
