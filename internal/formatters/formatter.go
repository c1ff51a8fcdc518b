// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"slices"
	"strings"

	"lethe/internal/detector"
	"lethe/internal/mapping"
)

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	NoColor     bool // Whether to disable colored output
	ShowMapping bool // Whether to include the original/replacement pairs
	ShowMatch   bool // Whether to display the detected text
}

// Finding is one detected entity located in its document.
type Finding struct {
	Type       detector.EntityType
	Text       string
	Line       int
	Start      int
	End        int
	Confidence float64
	Source     string
}

// Report describes the outcome of one command on one document.
type Report struct {
	Operation   string
	File        string
	Output      string
	MappingFile string

	// Summary counts distinct entities per type.
	Summary  map[detector.EntityType]int
	Findings []Finding
	Mapping  []mapping.Substitution

	Degraded bool
	Warnings []string
}

// Formatter interface defines methods that all output formatters must implement
type Formatter interface {
	// Format renders the reports
	Format(reports []Report, options FormatterOptions) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the recommended file extension for this format
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[name]
	return formatter, exists
}

// List returns all registered formatter names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry is the global formatter registry
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register a formatter with the default registry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get is a convenience function to get a formatter from the default registry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List is a convenience function to list all formatters in the default registry
func List() []string {
	return DefaultRegistry.List()
}

// Export renders reports with the named formatter from the default registry
func Export(format string, reports []Report, options FormatterOptions) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format '%s'. Available formats: %s", format, strings.Join(List(), ", "))
	}
	return formatter.Format(reports, options)
}

// FindingsFrom locates entities in text, adding 1-based line numbers.
func FindingsFrom(text string, entities []detector.Entity) []Finding {
	findings := make([]Finding, 0, len(entities))
	line, offset := 1, 0
	for _, e := range entities {
		if e.Start >= offset {
			line += strings.Count(text[offset:e.Start], "\n")
			offset = e.Start
		} else {
			line = 1 + strings.Count(text[:e.Start], "\n")
			offset = e.Start
		}
		findings = append(findings, Finding{
			Type:       e.Type,
			Text:       e.Text,
			Line:       line,
			Start:      e.Start,
			End:        e.End,
			Confidence: e.Confidence,
			Source:     e.Source,
		})
	}
	return findings
}

// SummaryCounts returns a count for every known type, zeros included.
func SummaryCounts(summary map[detector.EntityType]int) []TypeCount {
	out := make([]TypeCount, 0, len(detector.AllEntityTypes))
	for _, t := range detector.AllEntityTypes {
		out = append(out, TypeCount{Type: t, Count: summary[t]})
	}
	return out
}

// TypeCount pairs an entity type with a count.
type TypeCount struct {
	Type  detector.EntityType
	Count int
}
