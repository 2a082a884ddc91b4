package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/blueprint"
	"github.com/matzehuels/gridplan/pkg/geom"
)

// summary describes a blueprint for the inspect command.
type summary struct {
	Hash     string                  `json:"hash"`
	Entities int                     `json:"entities"`
	Tiles    int                     `json:"tiles"`
	Wires    int                     `json:"wires"`
	Bounds   geom.Area               `json:"bounds"`
	Kinds    map[string]int          `json:"kinds"`
	Networks map[blueprint.Color]int `json:"networks"`
	Problems []string                `json:"problems,omitempty"`
}

func summarize(v *blueprint.View) summary {
	s := summary{
		Hash:     v.Hash(),
		Entities: v.Len(),
		Tiles:    len(v.Tiles()),
		Wires:    v.Connections().Len(),
		Bounds:   v.Bounds(),
		Kinds:    v.CountByKind(),
		Networks: make(map[blueprint.Color]int),
	}
	for _, c := range []blueprint.Color{blueprint.Red, blueprint.Green, blueprint.Copper} {
		if n := len(v.Connections().Networks(c)); n > 0 {
			s.Networks[c] = n
		}
	}
	if err := v.Validate(); err != nil {
		s.Problems = append(s.Problems, err.Error())
	}
	return s
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [blueprint.json]",
		Short: "Summarize a blueprint",
		Long: `Summarize a blueprint: entity and tile counts, bounds, entities per kind,
wire networks per color and any consistency problems.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := c.readBlueprint(args[0])
			if err != nil {
				return err
			}
			s := summarize(bp.View())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			printSummary(cmd.OutOrStdout(), args[0], s)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func printSummary(w io.Writer, name string, s summary) {
	fmt.Fprintln(w, StyleTitle.Render(name))
	printKeyValue(w, "hash", s.Hash)
	printKeyValue(w, "entities", StyleNumber.Render(fmt.Sprint(s.Entities)))
	printKeyValue(w, "tiles", StyleNumber.Render(fmt.Sprint(s.Tiles)))
	printKeyValue(w, "wires", StyleNumber.Render(fmt.Sprint(s.Wires)))
	if !s.Bounds.Empty() {
		printKeyValue(w, "bounds", fmt.Sprintf("%dx%d at (%d,%d)", s.Bounds.W, s.Bounds.H, s.Bounds.X, s.Bounds.Y))
	}
	for _, c := range []blueprint.Color{blueprint.Red, blueprint.Green, blueprint.Copper} {
		if n := s.Networks[c]; n > 0 {
			printKeyValue(w, string(c)+" nets", fmt.Sprint(n))
		}
	}

	if len(s.Kinds) > 0 {
		names := make([]string, 0, len(s.Kinds))
		for k := range s.Kinds {
			names = append(names, k)
		}
		sort.Slice(names, func(i, j int) bool {
			if s.Kinds[names[i]] != s.Kinds[names[j]] {
				return s.Kinds[names[i]] > s.Kinds[names[j]]
			}
			return names[i] < names[j]
		})
		rows := make([][]string, len(names))
		for i, k := range names {
			rows[i] = []string{k, fmt.Sprint(s.Kinds[k])}
		}
		printNewline(w)
		printTable(w, []string{"Kind", "Count"}, rows)
	}

	for _, p := range s.Problems {
		printWarning(w, "%s", p)
	}
}
