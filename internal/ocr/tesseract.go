package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivoytov/manhattan/internal/config"
)

// Tesseract rasterizes page 1 of a PDF with pdftoppm and recognizes English
// text with the tesseract CLI. Scanned notices are images, so a text-layer
// extractor gets nothing out of them.
type Tesseract struct {
	pdftoppm  string
	tesseract string
	density   int
}

// NewTesseract creates a Tesseract extractor. Empty paths fall back to the
// bare binary names; a zero density falls back to 150 DPI.
func NewTesseract(cfg config.OCRConfig) *Tesseract {
	t := &Tesseract{
		pdftoppm:  cfg.PdfToPpmPath,
		tesseract: cfg.TesseractPath,
		density:   cfg.Density,
	}
	if t.pdftoppm == "" {
		t.pdftoppm = "pdftoppm"
	}
	if t.tesseract == "" {
		t.tesseract = "tesseract"
	}
	if t.density <= 0 {
		t.density = 150
	}
	return t
}

// ExtractText rasterizes the first page and runs recognition. The
// intermediate image is deleted whether or not recognition succeeds.
func (t *Tesseract) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "ocr-raster-*")
	if err != nil {
		return "", &ExtractionError{Path: pdfPath, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	raster := exec.CommandContext(ctx, t.pdftoppm,
		"-png", "-f", "1", "-l", "1", "-r", strconv.Itoa(t.density),
		pdfPath, prefix)
	var rasterErr bytes.Buffer
	raster.Stderr = &rasterErr
	if err := raster.Run(); err != nil {
		return "", &ExtractionError{Path: pdfPath, Err: wrapExec(err, rasterErr.String())}
	}

	// pdftoppm numbers its output; exact padding depends on the page count.
	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return "", &ExtractionError{Path: pdfPath, Err: errNoRaster}
	}

	recognize := exec.CommandContext(ctx, t.tesseract, images[0], "stdout", "-l", "eng")
	var stdout, stderr bytes.Buffer
	recognize.Stdout = &stdout
	recognize.Stderr = &stderr
	if err := recognize.Run(); err != nil {
		return "", &ExtractionError{Path: pdfPath, Err: wrapExec(err, stderr.String())}
	}

	text := stdout.String()
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Path: pdfPath, Err: errNoText}
	}
	return text, nil
}
