package errors

import (
	"testing"
)

func TestValidateBlueprintName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "oil-field", false},
		{"valid with underscore", "smelter_array", false},
		{"valid with dot", "v1.2", false},
		{"valid with space", "my outpost", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"path traversal ..", "foo..bar", true},
		{"slash", "foo/bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"hidden", ".cache", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlueprintName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBlueprintName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateBlueprintName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "catalog.toml", false},
		{"valid nested", "catalogs/base.yaml", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateKindName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"pipe", false},
		{"pipe-to-ground", false},
		{"assembling_machine_2", false},
		{"", true},
		{"Pipe", true},
		{"-pipe", true},
		{"pipe ground", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateKindName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKindName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
