package main

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyxaxa/Image-Vectorizer/internal/testsupport"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeRaster(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.png")
	data := testsupport.SquaresPNG(t, 20, 20, image.Rect(2, 2, 10, 10), image.Rect(13, 13, 17, 17))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write raster: %v", err)
	}
	return path
}

func TestConvertToStdout(t *testing.T) {
	in := writeRaster(t)

	out, _, err := runCLI(t, "convert", in, "--no-preprocess")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, "viewBox") {
		t.Errorf("unexpected document: %s", out)
	}
}

func TestConvertToFile(t *testing.T) {
	in := writeRaster(t)
	dst := filepath.Join(t.TempDir(), "out.svg")

	_, stderr, err := runCLI(t, "convert", in, "-o", dst)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	doc, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("<svg")) {
		t.Errorf("unexpected document: %s", doc)
	}
	if !strings.Contains(stderr, "out.svg") {
		t.Errorf("stderr = %q, want the output path", stderr)
	}
}

func TestConvertRejectsNonImage(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(in, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := runCLI(t, "convert", in); err == nil {
		t.Fatal("convert of a text file succeeded")
	}
}

func TestInspect(t *testing.T) {
	in := writeRaster(t)

	out, _, err := runCLI(t, "inspect", in)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"20x20", "outer", "Excluded", "yes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectNeedsArgument(t *testing.T) {
	if _, _, err := runCLI(t, "inspect"); err == nil {
		t.Fatal("inspect without a file succeeded")
	}
}
