package ocr

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoytov/manhattan/internal/config"
)

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor(config.OCRConfig{Provider: "tesseract"})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, e)

	e, err = NewExtractor(config.OCRConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, e, "tesseract is the default provider")

	e, err = NewExtractor(config.OCRConfig{Provider: "pdftotext"})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, e)

	_, err = NewExtractor(config.OCRConfig{Provider: "textract"})
	assert.Error(t, err)
}

func TestExtractionErrorUnwrap(t *testing.T) {
	cause := eris.New("rasterizer crashed")
	err := &ExtractionError{Path: "saledocs/noticeofsale/705281-2016.pdf", Err: cause}

	assert.Contains(t, err.Error(), "705281-2016.pdf")
	assert.Equal(t, cause, err.Unwrap())
}
