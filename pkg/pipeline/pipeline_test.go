package pipeline

import (
	"testing"

	"github.com/matzehuels/gridplan/pkg/errors"
	"github.com/matzehuels/gridplan/pkg/generate"
	"github.com/matzehuels/gridplan/pkg/render"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"txt", false},
		{"png", true},
		{"JSON", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "txt"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should be [json], got %v", opts.Formats)
	}
	if opts.Engine != render.EngineDot {
		t.Errorf("Engine should be %s, got %s", render.EngineDot, opts.Engine)
	}
	if opts.Catalog == nil {
		t.Error("Catalog should default to the built-in catalog")
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}
	if opts.Generate.Pipes.PipeKind != generate.DefaultPipeKind {
		t.Errorf("PipeKind should be %s, got %s", generate.DefaultPipeKind, opts.Generate.Pipes.PipeKind)
	}

	// Second call should be idempotent
	formats := opts.Formats
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if len(opts.Formats) != len(formats) {
		t.Error("Formats changed on second call")
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown generator", Options{Generator: "belts"}},
		{"unknown format", Options{Formats: []string{"pdf"}}},
		{"unknown engine", Options{Engine: "fdp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}

	opts := Options{Generator: "belts"}
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown generator error = %v, want INVALID_INPUT", err)
	}
}

func TestPositionsSelectNeato(t *testing.T) {
	opts := Options{Wires: render.DOTOptions{Positions: true}}
	opts.SetDefaults()
	if opts.Engine != render.EngineNeato {
		t.Errorf("Engine = %s, want %s", opts.Engine, render.EngineNeato)
	}
}

func TestGeneratorOptions(t *testing.T) {
	opts := Options{}
	opts.SetDefaults()

	tests := []struct {
		generator string
		want      any
	}{
		{generate.GeneratorPipes, opts.Generate.Pipes},
		{generate.GeneratorPoles, opts.Generate.Poles},
		{generate.GeneratorBeacons, opts.Generate.Beacons},
		{"", nil},
	}
	for _, tt := range tests {
		opts.Generator = tt.generator
		got := opts.GeneratorOptions()
		if (got == nil) != (tt.want == nil) {
			t.Errorf("GeneratorOptions(%q) = %v, want %v", tt.generator, got, tt.want)
		}
	}
}
