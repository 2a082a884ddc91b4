package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/store"
)

// storeCommand creates the store command for managing saved blueprints.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage saved blueprints",
		Long: `Manage saved blueprints.

Blueprints are kept in the backend selected by the [store] section of the
config file: a directory of JSON files (default), a SQLite database or MongoDB.`,
	}

	cmd.AddCommand(c.storeSaveCommand())
	cmd.AddCommand(c.storeLoadCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

func (c *CLI) storeSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save [blueprint.json]",
		Short: "Save a blueprint",
		Long: `Save a blueprint. The name defaults to the file name without extension,
or a fresh id when reading standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bp, err := c.readBlueprint(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = defaultStoreName(args[0])
			}

			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			meta, err := s.Save(ctx, name, bp.ToRaw())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSuccess(w, "Saved %s", StyleValue.Render(meta.Name))
			printDetail(w, "%d entities · %d tiles · %s", meta.Entities, meta.Tiles, meta.Hash[:min(12, len(meta.Hash))])
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "name to save under")

	return cmd
}

// defaultStoreName derives a store name from a file path.
func defaultStoreName(path string) string {
	if path == stdinArg {
		return store.NewName()
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (c *CLI) storeLoadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load [name]",
		Short: "Write a saved blueprint to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			raw, _, err := s.Load(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "" || output == stdinArg {
				return raw.Encode(cmd.OutOrStdout())
			}
			return writeRaw(output, raw)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func writeRaw(path string, raw blueprint.Raw) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := raw.Encode(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved blueprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.List(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				printInfo(w, "No saved blueprints")
				return nil
			}
			rows := make([][]string, len(list))
			for i, m := range list {
				rows[i] = []string{m.Name, fmt.Sprint(m.Entities), fmt.Sprint(m.Tiles), m.UpdatedAt.Local().Format(time.DateTime)}
			}
			printTable(w, []string{"Name", "Entities", "Tiles", "Updated"}, rows)
			return nil
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a saved blueprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
			return nil
		},
	}
}
