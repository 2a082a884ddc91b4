package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridplan/pkg/generate"
	"github.com/matzehuels/gridplan/pkg/pipeline"
)

// generateFlags holds the flags shared by every generator subcommand.
type generateFlags struct {
	output  string
	formats string
	noCache bool
	refresh bool
}

// generateCommand creates the generate command and its generator subcommands.
func (c *CLI) generateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Lay out pipes, electric poles or beacons",
		Long: `Lay out pipes, electric poles or beacons around the entities of a blueprint.

Each subcommand reads a blueprint JSON file ("-" for standard input), runs one
generator and writes the blueprint with the generated entities applied.
Generator results are cached by blueprint content and options, so repeated
runs on an unchanged blueprint are instant.

Flags override the [generate.*] sections of the config file.`,
	}

	cmd.AddCommand(c.pipesCommand())
	cmd.AddCommand(c.polesCommand())
	cmd.AddCommand(c.beaconsCommand())

	return cmd
}

func (c *CLI) pipesCommand() *cobra.Command {
	var (
		gf   generateFlags
		opts generate.PipeOptions
	)
	cmd := &cobra.Command{
		Use:   "pipes [blueprint.json]",
		Short: "Connect pumpjacks with pipes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, generate.GeneratorPipes, args[0], gf, func(o *generate.Options) error {
				fl := cmd.Flags()
				if fl.Changed("pipe-kind") {
					o.Pipes.PipeKind = opts.PipeKind
				}
				if fl.Changed("underground-kind") {
					o.Pipes.UndergroundKind = opts.UndergroundKind
				}
				if fl.Changed("min-gap") {
					if err := generate.RequirePositive("--min-gap", opts.MinGap); err != nil {
						return err
					}
					o.Pipes.MinGap = opts.MinGap
				}
				if fl.Changed("max-turns") {
					if err := generate.RequirePositive("--max-turns", opts.MaxTurns); err != nil {
						return err
					}
					o.Pipes.MaxTurns = opts.MaxTurns
				}
				if fl.Changed("retries") {
					if err := generate.RequirePositive("--retries", opts.Retries); err != nil {
						return err
					}
					o.Pipes.Retries = opts.Retries
				}
				if fl.Changed("margin") {
					if err := generate.RequirePositive("--margin", opts.Margin); err != nil {
						return err
					}
					o.Pipes.Margin = opts.Margin
				}
				if fl.Changed("no-underground") {
					o.Pipes.NoUnderground = opts.NoUnderground
				}
				return nil
			})
		},
	}

	addGenerateFlags(cmd, &gf)
	cmd.Flags().StringVar(&opts.PipeKind, "pipe-kind", generate.DefaultPipeKind, "kind of above-ground pipes")
	cmd.Flags().StringVar(&opts.UndergroundKind, "underground-kind", generate.DefaultUndergroundPipeKind, "kind of underground pipes")
	cmd.Flags().IntVar(&opts.MinGap, "min-gap", generate.DefaultMinGap, "fewest cells an underground pair must skip")
	cmd.Flags().IntVar(&opts.MaxTurns, "max-turns", generate.DefaultMaxTurns, "turns allowed when joining pipe groups")
	cmd.Flags().IntVar(&opts.Retries, "retries", generate.DefaultRetries, "extra passes with two more turns each")
	cmd.Flags().IntVar(&opts.Margin, "margin", generate.DefaultMargin, "how far paths may wander outside the pumpjacks")
	cmd.Flags().BoolVar(&opts.NoUnderground, "no-underground", false, "keep every pipe above ground")

	return cmd
}

func (c *CLI) polesCommand() *cobra.Command {
	var (
		gf   generateFlags
		opts generate.PoleOptions
	)
	cmd := &cobra.Command{
		Use:   "poles [blueprint.json]",
		Short: "Power consumers with connected electric poles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, generate.GeneratorPoles, args[0], gf, func(o *generate.Options) error {
				if cmd.Flags().Changed("kind") {
					o.Poles.Kind = opts.Kind
				}
				if cmd.Flags().Changed("ignore-existing") {
					o.Poles.IgnoreExisting = opts.IgnoreExisting
				}
				return nil
			})
		},
	}

	addGenerateFlags(cmd, &gf)
	cmd.Flags().StringVar(&opts.Kind, "kind", generate.DefaultPoleKind, "pole kind")
	cmd.Flags().BoolVar(&opts.IgnoreExisting, "ignore-existing", false, "also power consumers already covered by a pole")

	return cmd
}

func (c *CLI) beaconsCommand() *cobra.Command {
	var (
		gf   generateFlags
		opts generate.BeaconOptions
	)
	cmd := &cobra.Command{
		Use:   "beacons [blueprint.json]",
		Short: "Surround module hosts with beacons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, generate.GeneratorBeacons, args[0], gf, func(o *generate.Options) error {
				if cmd.Flags().Changed("kind") {
					o.Beacons.Kind = opts.Kind
				}
				if cmd.Flags().Changed("min-affected") {
					if err := generate.RequirePositive("--min-affected", opts.MinAffected); err != nil {
						return err
					}
					o.Beacons.MinAffected = opts.MinAffected
				}
				return nil
			})
		},
	}

	addGenerateFlags(cmd, &gf)
	cmd.Flags().StringVar(&opts.Kind, "kind", generate.DefaultBeaconKind, "beacon kind")
	cmd.Flags().IntVar(&opts.MinAffected, "min-affected", generate.DefaultMinAffected, "fewest module hosts a beacon must reach")

	return cmd
}

func addGenerateFlags(cmd *cobra.Command, gf *generateFlags) {
	cmd.Flags().StringVarP(&gf.output, "output", "o", "", `output file (single format), base path (several) or "-" for stdout`)
	cmd.Flags().StringVarP(&gf.formats, "format", "f", "", "output format(s): json (default), dot, svg, txt (comma-separated)")
	cmd.Flags().BoolVar(&gf.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&gf.refresh, "refresh", false, "ignore cached results")
}

// runGenerate runs one generator on input. override applies the flags the
// user set on top of the configured generator options.
func (c *CLI) runGenerate(cmd *cobra.Command, generator, input string, gf generateFlags, override func(*generate.Options) error) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	cat, err := cfg.LoadCatalog()
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Generator: generator,
		Generate:  cfg.Generate,
		Formats:   parseFormats(gf.formats, pipeline.FormatJSON),
		Refresh:   gf.refresh,
		Catalog:   cat,
		Logger:    c.Logger,
	}
	if err := override(&opts.Generate); err != nil {
		return err
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	in, err := openInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	runner, err := c.newRunner(ctx, gf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	params := artifactWriteParams{
		formats: opts.Formats,
		input:   input,
		suffix:  generator,
		output:  gf.output,
		stdout:  cmd.OutOrStdout(),
	}
	status := cmd.OutOrStdout()
	if params.toStdout() {
		status = cmd.ErrOrStderr()
	}

	res, err := c.execute(ctx, status, runner, in, opts)
	if err != nil {
		return err
	}

	params.artifacts = res.Artifacts
	paths, err := writeArtifacts(params)
	if err != nil {
		return err
	}

	info := res.Generated.Info
	if info.Trivial {
		printInfo(status, "Nothing to connect")
	} else {
		printSuccess(status, "Generated %s", generator)
	}
	if info.Unserved > 0 {
		printWarning(status, "%d targets could not be served", info.Unserved)
	}
	for _, p := range paths {
		printFile(status, p)
	}
	printStats(status, res.Stats.Entities, res.Stats.Placed, res.CacheInfo.GenerateHit)
	if len(paths) > 0 && opts.Formats[0] == pipeline.FormatJSON {
		printNewline(status)
		printNextStep(status, "Preview", appName+" view "+paths[0])
	}
	return nil
}

// execute runs the pipeline behind a spinner.
func (c *CLI) execute(ctx context.Context, status io.Writer, runner *pipeline.Runner, in io.Reader, opts pipeline.Options) (*pipeline.Result, error) {
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, status, fmt.Sprintf("Generating %s...", opts.Generator))
	spinner.Start()

	res, err := runner.Execute(ctx, in, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return nil, err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	prog.done(fmt.Sprintf("Generated %d %s entities", res.Stats.Placed, opts.Generator))
	return res, nil
}
