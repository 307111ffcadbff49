// Package config reads batch job files describing many boxes.
//
// A job file holds a defaults block and a list of boxes. Any field left out
// of a box is taken from the defaults. Job files are TOML or YAML, chosen by
// extension:
//
//	# boxes.toml
//	[defaults]
//	pagesize = "A4"
//	formats  = ["pdf", "svg"]
//
//	[[box]]
//	name   = "wood"
//	width  = 4.5
//	height = 4.5
//	depth  = 2.5
//	centre = "art/wood-top.png"
//	side   = "art/wood-side.png"
//
// Relative paths inside a job file are resolved against the file's directory
// and may not leave it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/chitboxes/pkg/errors"
	"github.com/matzehuels/chitboxes/pkg/pipeline"
)

// Box is one entry of a job file. Dimensions are in centimetres.
type Box struct {
	Name     string   `toml:"name" yaml:"name"`
	Output   string   `toml:"output" yaml:"output"`
	Width    float64  `toml:"width" yaml:"width"`
	Height   float64  `toml:"height" yaml:"height"`
	Depth    float64  `toml:"depth" yaml:"depth"`
	PageSize string   `toml:"pagesize" yaml:"pagesize"`
	Sample   *bool    `toml:"sample" yaml:"sample"`
	Formats  []string `toml:"formats" yaml:"formats"`
	Centre   string   `toml:"centre" yaml:"centre"`
	Side     string   `toml:"side" yaml:"side"`
}

// Job is a parsed job file.
type Job struct {
	Defaults Box   `toml:"defaults" yaml:"defaults"`
	Boxes    []Box `toml:"box" yaml:"boxes"`

	// Dir is the directory relative paths are resolved against.
	Dir string `toml:"-" yaml:"-"`
}

// Entry is a fully resolved box ready to run.
type Entry struct {
	Name string
	// Output is the destination path without extension; one file per
	// format is written as Output + "." + format.
	Output  string
	Options pipeline.Options
}

// Load reads a job file. The format follows the extension: .toml, .yaml or
// .yml.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read job file")
	}
	job, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	job.Dir = filepath.Dir(path)
	return job, nil
}

// Parse decodes job file data. ext selects the syntax and may be given with
// or without the leading dot.
func Parse(data []byte, ext string) (*Job, error) {
	var job Job
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		if _, err := toml.Decode(string(data), &job); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidJob, err, "parse toml")
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &job); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidJob, err, "parse yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidJob, "unsupported job file type %q (want .toml, .yaml or .yml)", ext)
	}
	if len(job.Boxes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidJob, "job file lists no boxes")
	}
	return &job, nil
}

// Entries merges each box with the defaults, validates it and resolves its
// paths. Errors name the offending box.
func (j *Job) Entries() ([]Entry, error) {
	entries := make([]Entry, 0, len(j.Boxes))
	seen := make(map[string]int, len(j.Boxes))
	for i, b := range j.Boxes {
		e, err := j.entry(b.merge(j.Defaults))
		if err != nil {
			return nil, fmt.Errorf("box %d (%s): %w", i+1, b.label(), err)
		}
		if prev, dup := seen[e.Output]; dup {
			return nil, errors.New(errors.ErrCodeInvalidJob, "box %d and box %d both write %s", prev+1, i+1, e.Output)
		}
		seen[e.Output] = i
		entries = append(entries, e)
	}
	return entries, nil
}

func (j *Job) entry(b Box) (Entry, error) {
	out := b.Output
	if out == "" {
		out = b.Name
	}
	if out == "" {
		return Entry{}, errors.New(errors.ErrCodeInvalidJob, "box needs a name or an output")
	}
	if err := errors.ValidatePath(out); err != nil {
		return Entry{}, err
	}

	opts := pipeline.Options{
		Width:    b.Width,
		Height:   b.Height,
		Depth:    b.Depth,
		PageSize: b.PageSize,
		Sample:   b.Sample != nil && *b.Sample,
		Formats:  append([]string(nil), b.Formats...),
	}
	for _, p := range []struct {
		src string
		dst *string
	}{{b.Centre, &opts.CentrePath}, {b.Side, &opts.SidePath}} {
		if p.src == "" {
			continue
		}
		if err := errors.ValidatePath(p.src); err != nil {
			return Entry{}, err
		}
		*p.dst = filepath.Join(j.Dir, p.src)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Entry{}, err
	}

	name := b.Name
	if name == "" {
		name = filepath.Base(out)
	}
	return Entry{Name: name, Output: filepath.Join(j.Dir, out), Options: opts}, nil
}

// merge fills the zero fields of b from d.
func (b Box) merge(d Box) Box {
	if b.Width == 0 {
		b.Width = d.Width
	}
	if b.Height == 0 {
		b.Height = d.Height
	}
	if b.Depth == 0 {
		b.Depth = d.Depth
	}
	if b.PageSize == "" {
		b.PageSize = d.PageSize
	}
	if b.Sample == nil {
		b.Sample = d.Sample
	}
	if len(b.Formats) == 0 {
		b.Formats = d.Formats
	}
	if b.Centre == "" {
		b.Centre = d.Centre
	}
	if b.Side == "" {
		b.Side = d.Side
	}
	return b
}

func (b Box) label() string {
	switch {
	case b.Name != "":
		return b.Name
	case b.Output != "":
		return b.Output
	}
	return "unnamed"
}
