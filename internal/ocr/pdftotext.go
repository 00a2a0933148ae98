package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/rotisserie/eris"
)

var (
	errNoRaster = eris.New("rasterizer produced no image")
	errNoText   = eris.New("recognizer produced no text")
)

func wrapExec(err error, stderr string) error {
	if stderr == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, stderr)
}

// PdfToText extracts the embedded text layer using the pdftotext CLI.
// Useful for born-digital filings where rasterizing would only add noise.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout on page 1 and returns stdout.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-f", "1", "-l", "1", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &ExtractionError{Path: pdfPath, Err: wrapExec(err, stderr.String())}
	}
	return stdout.String(), nil
}
