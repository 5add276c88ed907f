package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"notehub/internal/errs"
	"notehub/internal/notes"
)

var (
	createTitle   string
	createContent string
	createTag     string
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a note",
	Long:  `Create a note. Input is checked with the same rules as the web form before anything is sent.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := notes.CreateNoteInput{
			Title:   createTitle,
			Content: createContent,
			Tag:     notes.Tag(createTag),
		}.Normalize()
		if err := notes.Validate(in); err != nil {
			return errors.New(errs.MessageOf(err))
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		note, err := client.CreateNote(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("create note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note created! %s\n", note.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVar(&createTitle, "title", "", "Note title (3-50 characters)")
	createCmd.Flags().StringVar(&createContent, "content", "", "Note content (at most 500 characters)")
	createCmd.Flags().StringVar(&createTag, "tag", string(notes.TagTodo), "Note tag")
}
