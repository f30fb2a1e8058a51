// Package exporter writes drafts out as cloud command payloads.
package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/recipeserver/cloudcmd/internal/registry"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Options controls what ExportDraft writes.
type Options struct {
	// Format is FormatJSON (default) or FormatYAML.
	Format string
	// All keeps every set with its stored numbering instead of the
	// submission payload, which carries only the first set.
	All bool
}

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ExportDraft writes the named draft to w as a {"cloud_commands": [...]}
// document. It returns the device models left out of the payload.
func ExportDraft(repo *registry.Repository, name string, w io.Writer, opts Options) ([]string, error) {
	d, err := repo.MustGetDraft(name)
	if err != nil {
		return nil, err
	}
	env := wire.Envelope{}
	var dropped []string
	if opts.All {
		env.CloudCommands = wire.Snapshot(d.Sets)
	} else {
		sub := wire.Encode(d.Sets)
		env.CloudCommands = sub.CloudCommands
		dropped = sub.Dropped
	}

	switch opts.Format {
	case "", FormatJSON:
		b, err := wire.Submission{CloudCommands: env.CloudCommands}.MarshalEnvelope()
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return nil, err
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toYAML(env)); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown export format %q", opts.Format)
	}
	return dropped, nil
}

// ExportDraftFile writes the named draft to path, choosing the format from the
// extension.
func ExportDraftFile(repo *registry.Repository, name, path string, all bool) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dst dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	dropped, err := ExportDraft(repo, name, f, Options{Format: FormatForPath(path), All: all})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return dropped, nil
}

type yamlStep struct {
	StepNo          int    `yaml:"stepNo"`
	StepDescription string `yaml:"stepDescription"`
}

type yamlSet struct {
	Model      string     `yaml:"model"`
	HexCommand string     `yaml:"hex_command"`
	Steps      []yamlStep `yaml:"steps"`
}

type yamlEnvelope struct {
	CloudCommands []yamlSet `yaml:"cloud_commands"`
}

func toYAML(env wire.Envelope) yamlEnvelope {
	out := yamlEnvelope{CloudCommands: make([]yamlSet, 0, len(env.CloudCommands))}
	for _, cs := range env.CloudCommands {
		ys := yamlSet{Model: cs.Model, HexCommand: cs.HexCommand, Steps: make([]yamlStep, 0, len(cs.Steps))}
		for _, s := range cs.Steps {
			ys.Steps = append(ys.Steps, yamlStep{StepNo: s.StepNo, StepDescription: s.StepDescription})
		}
		out.CloudCommands = append(out.CloudCommands, ys)
	}
	return out
}
