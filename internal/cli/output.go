package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// artifactWriteParams describes where the exports of a command go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string

	// input names the source file; outputs default to <input>.<suffix>.<format>.
	input  string
	suffix string

	// output is a file for a single format, a base path for several, or "-"
	// for standard output.
	output string
	stdout io.Writer
}

// toStdout reports whether the artifacts go to standard output.
func (p artifactWriteParams) toStdout() bool {
	return p.output == stdinArg || (p.output == "" && p.input == stdinArg)
}

// writeArtifacts writes each requested format and returns the paths written.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	if p.toStdout() {
		if len(p.formats) != 1 {
			return nil, fmt.Errorf("standard output takes a single format, got %d", len(p.formats))
		}
		_, err := p.stdout.Write(p.artifacts[p.formats[0]])
		return nil, err
	}

	base := p.output
	if base == "" {
		base = strings.TrimSuffix(p.input, filepath.Ext(p.input))
		if p.suffix != "" {
			base += "." + p.suffix
		}
	} else if len(p.formats) > 1 {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	var paths []string
	for _, format := range p.formats {
		path := base + "." + format
		if p.output != "" && len(p.formats) == 1 {
			path = p.output
		}
		if err := os.WriteFile(path, p.artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
