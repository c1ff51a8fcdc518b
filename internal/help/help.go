// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// CheckInfo contains standardized information about an entity check
type CheckInfo struct {
	Name                string   // Entity type name (e.g., "NATIONAL_ID_A")
	Label               string   // Human label (e.g., "CPFs")
	ShortDescription    string   // Short description for the entity list
	DetailedDescription string   // Detailed description of what the check does
	Patterns            []string // Patterns the check looks for
	Replacement         string   // How replacements are generated
	PositiveKeywords    []string // Keywords that raise confidence or confirm the entity
	Examples            []string // Sample matches
}

// Provider defines the interface for help content providers
type Provider interface {
	GetCheckInfo() CheckInfo
}

// CryptoInfo describes how mapping files are protected.
type CryptoInfo struct {
	KDF           string
	Iterations    int
	SaltSize      int
	Cipher        string
	MAC           string
	MappingFormat int
	Extension     string
}

// System renders help content for the application
type System struct {
	providers map[string]Provider
	out       io.Writer
	colors    map[string]*color.Color
}

// NewSystem creates a new help system writing to out
func NewSystem(out io.Writer, noColor bool) *System {
	if noColor {
		color.NoColor = true
	}

	return &System{
		providers: make(map[string]Provider),
		out:       out,
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"header":   color.New(color.FgBlue, color.Bold),
			"item":     color.New(color.FgCyan),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"positive": color.New(color.FgGreen),
			"negative": color.New(color.FgRed),
			"example":  color.New(color.FgMagenta),
		},
	}
}

// RegisterProvider adds a help provider to the system
func (h *System) RegisterProvider(provider Provider) {
	info := provider.GetCheckInfo()
	h.providers[strings.ToLower(info.Name)] = provider
}

func (h *System) sortedInfos() []CheckInfo {
	infos := make([]CheckInfo, 0, len(h.providers))
	for _, p := range h.providers {
		infos = append(infos, p.GetCheckInfo())
	}
	slices.SortFunc(infos, func(a, b CheckInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// ShowInfo lists the entities, the input formats and the mapping protection.
func (h *System) ShowInfo(formats []string, crypto CryptoInfo) {
	h.colors["title"].Fprintln(h.out, "Lethe - Reversible anonymization for Brazilian documents")
	fmt.Fprintln(h.out, strings.Repeat("=", 56))
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "ENTITIES:")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	for _, info := range h.sortedInfos() {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", info.Name, info.Label, info.ShortDescription)
	}
	w.Flush()
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "INPUT FORMATS:")
	fmt.Fprintf(h.out, "  %s\n", strings.Join(formats, " "))
	fmt.Fprintln(h.out, "  Legacy .doc files must be converted to .docx first.")
	fmt.Fprintln(h.out)

	h.colors["header"].Fprintln(h.out, "MAPPING PROTECTION:")
	w = tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Key derivation\t%s, %d iterations, %d-byte random salt\n", crypto.KDF, crypto.Iterations, crypto.SaltSize)
	fmt.Fprintf(w, "  Encryption\t%s\n", crypto.Cipher)
	fmt.Fprintf(w, "  Authentication\t%s\n", crypto.MAC)
	fmt.Fprintf(w, "  Mapping format\tv%d (%s files)\n", crypto.MappingFormat, crypto.Extension)
	w.Flush()
	fmt.Fprintln(h.out)

	fmt.Fprintln(h.out, "For details about one entity, use:")
	h.colors["example"].Fprintln(h.out, "  lethe info <ENTITY>")
}

// ShowCheckHelp displays detailed help for one entity. It reports false when
// the entity is unknown.
func (h *System) ShowCheckHelp(name string) bool {
	provider, exists := h.providers[strings.ToLower(name)]
	if !exists {
		h.colors["negative"].Fprintf(h.out, "Error: entity '%s' not found.\n", name)
		fmt.Fprintln(h.out, "Use 'lethe info' to see the supported entities.")
		return false
	}

	info := provider.GetCheckInfo()
	h.colors["title"].Fprintf(h.out, "%s (%s)\n", info.Name, info.Label)
	fmt.Fprintln(h.out, strings.Repeat("=", len(info.Name)+len([]rune(info.Label))+3))
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, info.DetailedDescription)
	fmt.Fprintln(h.out)

	if len(info.Patterns) > 0 {
		h.colors["header"].Fprintln(h.out, "PATTERNS DETECTED:")
		for _, pattern := range info.Patterns {
			fmt.Fprint(h.out, "  - ")
			h.colors["item"].Fprintln(h.out, pattern)
		}
		fmt.Fprintln(h.out)
	}

	if len(info.PositiveKeywords) > 0 {
		h.colors["header"].Fprintln(h.out, "CONTEXT KEYWORDS:")
		fmt.Fprint(h.out, "  ")
		h.colors["positive"].Fprintln(h.out, strings.Join(info.PositiveKeywords, ", "))
		fmt.Fprintln(h.out)
	}

	if info.Replacement != "" {
		h.colors["header"].Fprintln(h.out, "REPLACEMENT:")
		fmt.Fprintf(h.out, "  %s\n", info.Replacement)
		fmt.Fprintln(h.out)
	}

	if len(info.Examples) > 0 {
		h.colors["header"].Fprintln(h.out, "EXAMPLES:")
		for _, example := range info.Examples {
			fmt.Fprint(h.out, "  ")
			h.colors["example"].Fprintln(h.out, example)
		}
	}
	return true
}

// SortedKeys returns the keys of a keyword set in order.
func SortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
