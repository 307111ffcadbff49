package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

// boxFlags holds the flags shared by every command that describes one box.
type boxFlags struct {
	width    float64 // centimetres
	height   float64 // centimetres
	depth    float64 // centimetres
	pageSize string  // letter (default) or A4
	sample   bool    // placeholder panels instead of artwork
	centre   string  // artwork for the top, bottom and tabs
	side     string  // artwork for the walls
}

func (f *boxFlags) bind(cmd *cobra.Command, images bool) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "box width in cm")
	cmd.Flags().Float64Var(&f.height, "height", 0, "box height in cm")
	cmd.Flags().Float64Var(&f.depth, "depth", 0, "box depth in cm")
	cmd.Flags().StringVar(&f.pageSize, "pagesize", "", "paper size: letter (default), A4")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	_ = cmd.MarkFlagRequired("depth")
	_ = cmd.RegisterFlagCompletionFunc("pagesize", cobra.FixedCompletions([]string{"letter", "A4"}, cobra.ShellCompDirectiveNoFileComp))
	if !images {
		return
	}
	cmd.Flags().BoolVar(&f.sample, "sample", false, "draw labelled placeholder panels instead of artwork")
	cmd.Flags().StringVar(&f.centre, "centre", "", "image for the top, bottom and inner tabs")
	cmd.Flags().StringVar(&f.side, "side", "", "image for the side walls")
}

func (f *boxFlags) options() pipeline.Options {
	return pipeline.Options{
		Width:      f.width,
		Height:     f.height,
		Depth:      f.depth,
		PageSize:   f.pageSize,
		Sample:     f.sample,
		CentrePath: f.centre,
		SidePath:   f.side,
	}
}

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	box     boxFlags
	output  string // output path; the extension follows each format
	formats string // comma-separated output formats
	noCache bool
	refresh bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the die-line for one box",
		Long: `Generate lays out the two-page cutting net for a box and writes it in each
requested format. Page 1 is printed at full size, page 2 at 95% for the lid.

  chitboxes generate --width 4.5 --height 4.5 --depth 2.5 -o wood.pdf \
      --centre art/wood-top.png --side art/wood-side.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd.Context(), &opts)
		},
	}

	opts.box.bind(cmd, true)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one file per format, extension replaced)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): pdf (default), png, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render again even when cached")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"pdf", "png", "svg"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runGenerate(ctx context.Context, opts *generateOpts) error {
	if err := errors.ValidateOutputPath(opts.output); err != nil {
		return err
	}

	popts := opts.box.options()
	popts.Formats = parseFormats(opts.formats)
	popts.Refresh = opts.refresh
	popts.Destination = opts.output
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s box...", popts.Dimensions()))
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}

	var paths []string
	for _, format := range popts.Formats {
		path := outputPath(opts.output, format)
		if err := writeArtifact(path, res.Artifacts[format]); err != nil {
			spinner.Stop()
			return err
		}
		paths = append(paths, path)
	}

	spinner.StopWithSuccess(fmt.Sprintf("Generated %s box", popts.Dimensions()))
	prog.done("Rendered " + strings.Join(paths, ", "))
	for _, p := range paths {
		printFile(p)
	}
	for _, n := range res.Nets {
		printDetail("%s", pipeline.Summary(n))
	}
	printStats(res.Stats.Pages, res.Stats.Panels, res.CacheInfo.RenderHit)
	if _, square := popts.Dimensions().Square(); !square {
		printWarning("Width and height differ: no fold or cut guides were drawn")
	}
	printNextStep("Check panel positions", fmt.Sprintf("%s inspect --width %g --height %g --depth %g",
		appName, popts.Width, popts.Height, popts.Depth))
	return nil
}

// writeArtifact writes data to path, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
