package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/chitboxes/pkg/config"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

type batchOpts struct {
	jobs    int
	plain   bool
	noCache bool
	refresh bool
}

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{jobs: runtime.NumCPU()}

	cmd := &cobra.Command{
		Use:   "batch [job file]",
		Short: "Generate every box listed in a TOML or YAML job file",
		Long: `Batch reads a job file with a defaults block and a list of boxes and
generates them concurrently. Paths in the file are relative to the file.

  # boxes.toml
  [defaults]
  pagesize = "A4"
  formats  = ["pdf", "svg"]

  [[box]]
  name   = "wood"
  width  = 4.5
  height = 4.5
  depth  = 2.5
  centre = "art/wood-top.png"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", opts.jobs, "boxes generated at once")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print one line per box instead of the live view")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render again even when cached")

	return cmd
}

// boxResult reports one finished box.
type boxResult struct {
	index    int
	paths    []string
	cached   bool
	duration time.Duration
	err      error
}

// batchReporter receives progress from concurrent workers.
type batchReporter interface {
	started(index int)
	finished(r boxResult)
}

func (c *CLI) runBatch(ctx context.Context, path string, opts *batchOpts) error {
	job, err := config.Load(path)
	if err != nil {
		return err
	}
	entries, err := job.Entries()
	if err != nil {
		return err
	}
	if opts.jobs < 1 {
		opts.jobs = 1
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts.plain {
		return runEntries(ctx, runner, entries, opts, &lineReporter{entries: entries})
	}

	// The live view owns the terminal; keep log lines out of it.
	runner.Logger = log.New(io.Discard)

	model := newBatchModel(entries, cancel)
	prog := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	errc := make(chan error, 1)
	go func() {
		err := runEntries(ctx, runner, entries, opts, teaReporter{prog})
		prog.Send(batchDoneMsg{err: err})
		errc <- err
	}()

	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("batch view: %w", err)
	}
	cancel()
	return <-errc
}

// runEntries generates entries with at most opts.jobs in flight. The first
// failure cancels the boxes not yet finished.
func runEntries(ctx context.Context, runner *pipeline.Runner, entries []config.Entry, opts *batchOpts, rep batchReporter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep.started(i)
			start := time.Now()

			popts := e.Options
			popts.Refresh = opts.refresh
			// Job entries are validated with a discarding logger.
			popts.Logger = runner.Logger
			popts.Destination = e.Output
			res, err := runner.Execute(gctx, popts)
			r := boxResult{index: i}
			if err == nil {
				r.cached = res.CacheInfo.RenderHit
				for _, format := range popts.Formats {
					p := e.Output + "." + format
					if err = writeArtifact(p, res.Artifacts[format]); err != nil {
						break
					}
					r.paths = append(r.paths, p)
				}
			}
			r.duration = time.Since(start)
			r.err = err
			rep.finished(r)
			if err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// lineReporter prints a status line per finished box.
type lineReporter struct {
	entries []config.Entry
	mu      sync.Mutex
	done    int
}

func (l *lineReporter) started(int) {}

func (l *lineReporter) finished(r boxResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.done++
	e := l.entries[r.index]
	prefix := fmt.Sprintf("[%d/%d] %s", l.done, len(l.entries), e.Name)
	if r.err != nil {
		printError("%s: %v", prefix, r.err)
		return
	}
	printSuccess("%s (%s)", prefix, r.duration.Round(time.Millisecond))
	for _, p := range r.paths {
		printFile(p)
	}
	if r.cached {
		printStats(0, 0, true)
	}
}

// teaReporter forwards progress to the live view.
type teaReporter struct{ prog *tea.Program }

func (t teaReporter) started(i int) { t.prog.Send(boxStartedMsg{index: i}) }
func (t teaReporter) finished(r boxResult) { t.prog.Send(boxDoneMsg(r)) }
