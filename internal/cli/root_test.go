package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/observability"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"generate", "preview", "inspect", "batch", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestExecuteGenerate(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "wood.pdf")

	err := Execute(context.Background(), []string{
		"generate", "--width", "4.5", "--height", "4.5", "--depth", "2.5",
		"--sample", "-o", out, "-f", "pdf,svg",
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Error("wood.pdf is not a PDF")
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", "wood.svg")); err != nil {
		t.Errorf("wood.svg missing: %v", err)
	}
}

func TestExecuteGenerateErrors(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	out := filepath.Join(t.TempDir(), "box.pdf")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no output", []string{"generate", "--width", "1", "--height", "1", "--depth", "1"}, errors.ErrCodeInvalidOutput},
		{"zero width", []string{"generate", "--width", "0", "--height", "1", "--depth", "1", "-o", out}, errors.ErrCodeInvalidDimensions},
		{"bad page", []string{"generate", "--width", "1", "--height", "1", "--depth", "1", "--pagesize", "B5", "-o", out}, errors.ErrCodeInvalidPageSize},
		{"bad format", []string{"generate", "--width", "1", "--height", "1", "--depth", "1", "-f", "eps", "-o", out}, errors.ErrCodeInvalidFormat},
		{"missing image", []string{"generate", "--width", "1", "--height", "1", "--depth", "1", "--centre", "nope.png", "-o", out}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), tt.args)
			if !errors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want %s", err, tt.code)
			}
		})
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("failed runs must not leave an output file")
	}
}

func TestExecuteRequiredFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"generate", "--width", "1", "-o", "x.pdf"})
	if err == nil {
		t.Error("missing --height and --depth should fail")
	}
}

func TestExecuteVerboseRegistersHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	if err := Execute(context.Background(), []string{"-v", "cache", "path"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := observability.Pipeline().(logHooks); !ok {
		t.Errorf("pipeline hooks = %T, want logHooks", observability.Pipeline())
	}
	if _, ok := observability.HTTP().(logHooks); !ok {
		t.Errorf("http hooks = %T, want logHooks", observability.HTTP())
	}
}
