package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chitboxes/pkg/canvas"
	"github.com/matzehuels/chitboxes/pkg/chitbox"
	"github.com/matzehuels/chitboxes/pkg/geom"
	"github.com/matzehuels/chitboxes/pkg/imageio"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var box boxFlags

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print where every panel of both pages lands",
		Long: `Inspect lays out both pages without producing a document and prints each
panel's role, centre, size and rotation in page coordinates, followed by the
drawing operations per page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), os.Stdout, &box)
		},
	}
	box.bind(cmd, true)
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, w io.Writer, box *boxFlags) error {
	opts := box.options()
	opts.Logger = loggerFromContext(ctx)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	imgs, err := pipeline.LoadImages(ctx, opts)
	if err != nil {
		return err
	}
	page, err := opts.Page()
	if err != nil {
		return err
	}

	genOpts := []chitbox.Option{chitbox.WithPageSize(page), chitbox.WithLogger(opts.Logger)}
	if opts.Sample {
		genOpts = append(genOpts, chitbox.WithSample())
	} else if imgs.Centre != nil || imgs.Side != nil {
		genOpts = append(genOpts, chitbox.WithImages(imageOrNil(imgs.Centre), imageOrNil(imgs.Side)))
	}
	gen, err := chitbox.New(opts.Dimensions(), genOpts...)
	if err != nil {
		return err
	}

	rec := canvas.NewRecorder()
	nets, err := gen.GenerateContext(ctx, rec)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s box on %s", opts.Dimensions(), page.Name)))
	for _, n := range nets {
		fmt.Fprintln(w)
		fmt.Fprintln(w, StyleHighlight.Render(pipeline.Summary(n)))
		fmt.Fprintln(w, netTable(n))
		fmt.Fprintln(w, StyleDim.Render(opsLine(rec, n)))
	}
	return nil
}

// netTable renders the panels of n with positions in centimetres.
func netTable(n chitbox.Net) string {
	cm := chitbox.Cm(1)
	rows := make([][]string, 0, len(n.Panels))
	for _, p := range n.Panels {
		c := p.Centre()
		rows = append(rows, []string{
			string(p.Role),
			p.Name,
			p.Kind.String(),
			fmt.Sprintf("%6.2f, %6.2f", c.X/cm, c.Y/cm),
			fmt.Sprintf("%.2f x %.2f", p.W*p.CTM.ScaleFactor()/cm, p.H*p.CTM.ScaleFactor()/cm),
			fmt.Sprintf("%4.0f°", geom.NormalizeAngle(p.CTM.Rotation())),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Role", "Panel", "Art", "Centre (cm)", "Size (cm)", "Angle").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		}).
		Render()
}

// opsLine counts the drawing operations recorded for the page of n.
func opsLine(rec *canvas.Recorder, n chitbox.Net) string {
	count := func(op canvas.Op) int { return len(rec.Filter(n.Page, op)) }
	return fmt.Sprintf("  %d images · %d rects · %d polygons · %d lines · %d labels · %d annotation strokes · turning %.0f°",
		count(canvas.OpImage), count(canvas.OpRect), count(canvas.OpPolygon),
		count(canvas.OpLine), count(canvas.OpText), n.Annotations, n.Silhouette.TurningSum())
}

func imageOrNil(r *imageio.Resource) canvas.Image {
	if r == nil {
		return nil
	}
	return r
}
