// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"lethe/internal/observability"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"
)

// PDFPreprocessor extracts the text layer of PDF documents. Scanned PDFs
// without a text layer yield empty text.
type PDFPreprocessor struct {
	observer  *observability.StandardObserver
	pdfConfig *model.Configuration
}

// NewPDFPreprocessor creates a new PDF preprocessor
func NewPDFPreprocessor() *PDFPreprocessor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFPreprocessor{pdfConfig: conf}
}

// SetObserver sets the observability component
func (pp *PDFPreprocessor) SetObserver(observer *observability.StandardObserver) {
	pp.observer = observer
}

// GetName returns the name of this preprocessor
func (pp *PDFPreprocessor) GetName() string {
	return "PDF Preprocessor"
}

// GetSupportedExtensions returns the file extensions this preprocessor supports
func (pp *PDFPreprocessor) GetSupportedExtensions() []string {
	return []string{".pdf"}
}

// CanProcess checks if this preprocessor can handle the given file
func (pp *PDFPreprocessor) CanProcess(filePath string) bool {
	return hasExtension(filePath, pp.GetSupportedExtensions())
}

// Process validates the file structure, then extracts text page by page.
// Pages are joined by newlines.
func (pp *PDFPreprocessor) Process(filePath string) (*ProcessedContent, error) {
	var finishTiming func(bool, map[string]interface{})
	if pp.observer != nil {
		finishTiming = pp.observer.StartTiming("pdf_preprocessor", "process_file", filePath)
	}
	fail := func(err error) (*ProcessedContent, error) {
		if finishTiming != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	cleanPath := filepath.Clean(filePath)
	if err := api.ValidateFile(cleanPath, pp.pdfConfig); err != nil {
		return fail(fmt.Errorf("invalid PDF file: %w", err))
	}

	pages, err := extractPDFPages(cleanPath)
	if err != nil {
		return fail(err)
	}

	result := &ProcessedContent{
		OriginalPath:  filePath,
		Filename:      filepath.Base(filePath),
		Text:          norm.NFC.String(strings.Join(pages, "\n")),
		Format:        "PDF Document",
		Encoding:      "utf-8",
		PageCount:     len(pages),
		ProcessorType: "pdf",
	}
	fillCounts(result)

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"page_count": result.PageCount,
			"word_count": result.WordCount,
		})
	}
	return result, nil
}

func extractPDFPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(p)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageText rebuilds a page row by row, falling back to the plain text
// stream when row grouping fails.
func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		if line := rowText(row.Content); strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// rowText orders a row's glyph runs left to right and inserts a space where
// the gap exceeds a fifth of the font size.
func rowText(texts []pdf.Text) string {
	sorted := slices.Clone(texts)
	slices.SortStableFunc(sorted, func(a, b pdf.Text) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return 0
	})

	var b strings.Builder
	for i, t := range sorted {
		b.WriteString(t.S)
		if i == len(sorted)-1 {
			break
		}
		fontSize := t.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		if sorted[i+1].X-(t.X+t.W) > fontSize*0.2 && !strings.HasSuffix(t.S, " ") {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
