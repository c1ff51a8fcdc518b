// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lerrors "lethe/internal/errors"
	"lethe/internal/observability"
)

// ProcessedContent is the text extracted from one document
type ProcessedContent struct {
	// Original file information
	OriginalPath string
	Filename     string

	// Extracted content, NFC normalized
	Text string

	// Content metadata
	Format    string
	Encoding  string
	PageCount int
	WordCount int
	CharCount int
	LineCount int

	// Processing information
	ProcessorType string
}

// Preprocessor interface defines methods for extracting text from files
type Preprocessor interface {
	// CanProcess checks if this preprocessor can handle the given file
	CanProcess(filePath string) bool

	// Process extracts content from the file
	Process(filePath string) (*ProcessedContent, error)

	// GetName returns the name of this preprocessor
	GetName() string

	// GetSupportedExtensions returns the file extensions this preprocessor supports
	GetSupportedExtensions() []string

	// SetObserver sets the observability component
	SetObserver(observer *observability.StandardObserver)
}

// Registry picks a preprocessor by file extension.
type Registry struct {
	preprocessors []Preprocessor
}

// NewRegistry returns a registry holding the plain text, DOCX and PDF
// preprocessors.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewPlainTextPreprocessor())
	r.Register(NewDocxPreprocessor())
	r.Register(NewPDFPreprocessor())
	return r
}

// Register adds a preprocessor. Earlier registrations win.
func (r *Registry) Register(p Preprocessor) {
	r.preprocessors = append(r.preprocessors, p)
}

// SetObserver propagates observer to every registered preprocessor.
func (r *Registry) SetObserver(observer *observability.StandardObserver) {
	for _, p := range r.preprocessors {
		p.SetObserver(observer)
	}
}

// SupportedExtensions lists every extension the registry accepts, sorted.
func (r *Registry) SupportedExtensions() []string {
	var exts []string
	for _, p := range r.preprocessors {
		exts = append(exts, p.GetSupportedExtensions()...)
	}
	slices.Sort(exts)
	return slices.Compact(exts)
}

// Lookup returns the preprocessor for filePath, or nil.
func (r *Registry) Lookup(filePath string) Preprocessor {
	for _, p := range r.preprocessors {
		if p.CanProcess(filePath) {
			return p
		}
	}
	return nil
}

// Extract reads filePath with the matching preprocessor. Extensions no
// preprocessor handles, legacy .doc included, yield ErrUnsupportedFormat.
func (r *Registry) Extract(filePath string) (*ProcessedContent, error) {
	p := r.Lookup(filePath)
	if p == nil {
		ext := strings.ToLower(filepath.Ext(filePath))
		msg := fmt.Sprintf("unsupported file format %q", ext)
		if ext == ".doc" {
			msg = "legacy .doc files are not supported, save the document as .docx"
		}
		return nil, lerrors.NewError(lerrors.KindUnsupportedFormat, msg, "preprocessors", nil)
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filePath, err)
	}
	return p.Process(filePath)
}

func hasExtension(filePath string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(filePath)))
}

// fillCounts sets the word, char and line counts from Text.
func fillCounts(c *ProcessedContent) {
	c.WordCount = len(strings.Fields(c.Text))
	c.CharCount = len([]rune(c.Text))
	c.LineCount = strings.Count(c.Text, "\n") + 1
}
