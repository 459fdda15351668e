package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
)

// CommandRunner abstracts external tool invocation so OCR can be tested
// without a tesseract install.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outbuf, errbuf bytes.Buffer
	cmd.Stdout = &outbuf
	cmd.Stderr = &errbuf
	err := cmd.Run()
	return outbuf.Bytes(), errbuf.Bytes(), err
}

// OCREngine converts rasterized page images to text via the tesseract binary.
type OCREngine struct {
	tesseractPath string
	lang          string
	runner        CommandRunner
	logger        domain.Logger
}

// NewOCREngine creates an OCR engine backed by the tesseract binary at the
// given path (or name resolved via PATH).
func NewOCREngine(tesseractPath string, logger domain.Logger) *OCREngine {
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	return &OCREngine{
		tesseractPath: tesseractPath,
		lang:          "eng",
		runner:        execRunner{},
		logger:        logger,
	}
}

// ImageToText runs OCR over a single page image and returns the recognized text.
func (o *OCREngine) ImageToText(ctx context.Context, imagePath string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := o.runner.Run(ctx, o.tesseractPath, imagePath, "stdout", "-l", o.lang)
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w (%s)", err, bytes.TrimSpace(errb))
	}
	return string(out), nil
}
