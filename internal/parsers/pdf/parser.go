// Package pdf provides a parser for PDF documents using the pdftotext
// binary from poppler-utils.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// CommandRunner executes an external command and returns its stdout.
// Abstracted so tests can run without pdftotext installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Parser handles PDF documents.
type Parser struct {
	runner CommandRunner
}

// Option configures the parser.
type Option func(*Parser)

// WithRunner overrides the command runner, used in tests.
func WithRunner(runner CommandRunner) Option {
	return func(p *Parser) {
		p.runner = runner
	}
}

// New creates a new PDF parser.
func New(opts ...Option) *Parser {
	p := &Parser{runner: execRunner{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format returns the document format this parser handles.
func (p *Parser) Format() domain.Format {
	return domain.FormatPDF
}

// Extract converts the PDF to text with pdftotext. The bytes are written
// to a temporary file because pdftotext does not read PDF data from stdin.
func (p *Parser) Extract(ctx context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", fmt.Errorf("%w: missing PDF header", domain.ErrCorruptFile)
	}

	tmp, err := os.CreateTemp("", "docsearch-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	// "-" sends the extracted text to stdout.
	output, err := p.runner.Run(ctx, "pdftotext", "-layout", "-nopgbrk", tmp.Name(), "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("pdftotext is not installed: %w\n%s", err, InstallInstructions())
		}
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	return strings.TrimSpace(string(output)), nil
}

// InstallInstructions returns guidance for installing pdftotext.
func InstallInstructions() string {
	return `PDF parsing requires pdftotext from poppler-utils:
  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils`
}
