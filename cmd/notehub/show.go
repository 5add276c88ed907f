package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"notehub/internal/notes"
)

var (
	showJSON bool
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a note",
	Long:  `Show a note by its ID. Prints the title, tag and raw content, or the JSON object with --json.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		note, err := client.GetNote(cmd.Context(), notes.NoteID(args[0]))
		if err != nil {
			return fmt.Errorf("get note %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if showJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(note)
		}
		fmt.Fprintf(out, "%s\n[%s] %s\n\n%s\n", note.Title, note.Tag, note.CreatedAt.Format("Jan 2, 2006 15:04"), note.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
