package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/oarkflow/log"

	"github.com/xirelogy/go-mumei"
)

func TestRunModes(t *testing.T) {
	var printed bytes.Buffer
	engine, err := mumei.New(
		mumei.WithLogger(&log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}),
		mumei.WithStdout(&printed),
	)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer engine.Close()

	tests := []struct {
		name string
		src  string
		mode runMode
		out  string
	}{
		{"interpreter", "println(1 + 1)", runMode{}, ""},
		{"vm", "println(2 + 2)", runMode{vm: true}, ""},
		{"fast", "6 * 7", runMode{fast: true}, "42\n"},
		{"disasm", "1 + 2", runMode{disasm: true}, "OP_ADD"},
		{"ast", "1 + 2", runMode{ast: true}, "+"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if err := run(engine, tt.src, tt.mode, &out); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !strings.Contains(out.String(), tt.out) {
			t.Fatalf("%s: output %q does not contain %q", tt.name, out.String(), tt.out)
		}
	}
	if printed.String() != "2\n4\n" {
		t.Fatalf("unexpected script output %q", printed.String())
	}

	if err := run(engine, "let = 1", runMode{vm: true}, io.Discard); err == nil {
		t.Fatalf("expected a parse error")
	}
}
