package prompt

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestPrompter_Select(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "first option", input: "1\n", want: 0},
		{name: "last option without newline", input: "3", want: 2},
		{name: "retries after out of range", input: "9\nx\n2\n", want: 1},
		{name: "eof before answer", input: "", want: -1, wantErr: true},
	}

	options := []string{"dev", "prod", "staging"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(strings.NewReader(tt.input), &out)

			got, err := p.Select("Select a context", options)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Select() = %d, want %d", got, tt.want)
			}
			if !strings.Contains(out.String(), "  2) prod") {
				t.Errorf("options not listed:\n%s", out.String())
			}
		})
	}
}

func TestPrompter_SelectEmpty(t *testing.T) {
	p := New(strings.NewReader("1\n"), io.Discard)
	if _, err := p.Select("pick", nil); err == nil {
		t.Error("expected error for empty options")
	}
}

func TestPrompter_Input(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  prod  \n"), &out)

	got, err := p.Input("Context name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "prod" {
		t.Errorf("Input() = %q, want %q", got, "prod")
	}
	if out.String() != "Context name: " {
		t.Errorf("unexpected prompt %q", out.String())
	}
}

func TestPrompter_NotInteractive(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	p := New(f, io.Discard)
	if p.Interactive() {
		t.Fatal("regular file must not be treated as a terminal")
	}
	if _, err := p.Input("name"); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("expected ErrNotInteractive, got %v", err)
	}
	if _, err := p.Select("pick", []string{"a"}); !errors.Is(err, ErrNotInteractive) {
		t.Errorf("expected ErrNotInteractive, got %v", err)
	}
}
