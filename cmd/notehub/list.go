package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"notehub/internal/notes"
)

var (
	listJSON   bool
	listSearch string
	listTag    string
	listPage   int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPage < 1 {
			return fmt.Errorf("--page must be 1 or greater")
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		res, err := client.ListNotes(cmd.Context(), notes.ListParams{
			Page:    listPage,
			PerPage: notes.DefaultPerPage,
			Search:  listSearch,
			Tag:     notes.ParseTagFilter(listTag),
		})
		if err != nil {
			return fmt.Errorf("list notes: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(res)
		}

		if len(res.Notes) == 0 {
			fmt.Fprintln(out, "No notes found")
			return nil
		}
		for _, n := range res.Notes {
			fmt.Fprintf(out, "%s\t[%s]\t%s\n", n.ID, n.Tag, n.Title)
		}
		if res.TotalPages > 1 {
			fmt.Fprintf(out, "page %d of %d\n", listPage, res.TotalPages)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only notes containing this text")
	listCmd.Flags().StringVar(&listTag, "tag", "All", "Filter notes by tag")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
}
