package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/render"
)

// viewCommand creates the view command.
func (c *CLI) viewCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "view [blueprint.json]",
		Short: "Browse and edit a blueprint in the terminal",
		Long: `Browse a blueprint as a character grid in the terminal.

The entity under the cursor can be rotated or deleted, edits can be undone and
redone, and "s" writes the blueprint back to its file. With --plain the grid is
printed once without the interactive viewer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := c.readBlueprint(args[0])
			if err != nil {
				return err
			}
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), render.Grid(bp.View(), render.GridOptions{}))
				return nil
			}

			path := args[0]
			if path == stdinArg {
				path = ""
			}
			p := tea.NewProgram(NewViewerModel(bp, path), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("viewer: %w", err)
			}
			if m, ok := final.(ViewerModel); ok && m.Dirty {
				printWarning(cmd.OutOrStdout(), "Unsaved edits discarded")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the grid without the interactive viewer")

	return cmd
}
