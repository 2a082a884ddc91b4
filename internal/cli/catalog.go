package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/catalog"
)

// catalogCommand creates the catalog command listing entity kinds.
func (c *CLI) catalogCommand() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the entity kinds of the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog()
			if err != nil {
				return err
			}
			kinds := cat.Kinds()
			if role != "" {
				r, err := catalog.ParseRole(role)
				if err != nil {
					return err
				}
				kinds = cat.WithRole(r)
			}

			rows := make([][]string, len(kinds))
			for i, k := range kinds {
				rotations := "-"
				if k.CanRotate() {
					rotations = fmt.Sprint(len(k.Rotations))
				}
				rows[i] = []string{k.Name, fmt.Sprintf("%dx%d", k.Width, k.Height), rotations, strings.Join(k.Roles.Names(), ", ")}
			}
			printTable(cmd.OutOrStdout(), []string{"Kind", "Size", "Rotations", "Roles"}, rows)
			printDetail(cmd.OutOrStdout(), "%d kinds · %d recipes · digest %s", len(kinds), len(cat.Recipes()), cat.Digest()[:min(12, len(cat.Digest()))])
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "only list kinds with this role (e.g. pole, beacon, pumpjack)")

	return cmd
}
