package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/sink"
)

type previewOpts struct {
	box     boxFlags
	output  string
	noCache bool
	refresh bool
}

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	opts := previewOpts{output: "preview.png"}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Write a sample-mode PNG of page 1",
		Long: `Preview renders page 1 with labelled placeholder panels instead of artwork
and rasterises it at 75 dpi. Use it to check proportions before printing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), &opts)
		},
	}

	opts.box.bind(cmd, false)
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output PNG file")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render again even when cached")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, opts *previewOpts) error {
	if err := errors.ValidateOutputPath(opts.output); err != nil {
		return err
	}
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := opts.box.options()
	popts.Refresh = opts.refresh
	popts.Destination = opts.output
	spinner := newSpinnerWithContext(ctx, "Rendering preview...")
	spinner.Start()
	data, hit, err := runner.Preview(ctx, popts)
	if err != nil {
		spinner.StopWithError("Preview failed")
		return err
	}
	if err := writeArtifact(opts.output, data); err != nil {
		spinner.Stop()
		return err
	}

	spinner.StopWithSuccess(fmt.Sprintf("Preview of %s box at %d dpi", popts.Dimensions(), sink.PreviewDPI))
	printFile(opts.output)
	printStats(1, 0, hit)
	return nil
}
