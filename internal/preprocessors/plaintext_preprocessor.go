// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"lethe/internal/observability"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

const maxTextFileSize = 100 * 1024 * 1024 // 100MB

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainTextPreprocessor reads text files. Files that are not valid UTF-8 are
// decoded as Windows-1252, the usual encoding of older Brazilian documents.
type PlainTextPreprocessor struct {
	observer *observability.StandardObserver
}

// NewPlainTextPreprocessor creates a new plain text preprocessor
func NewPlainTextPreprocessor() *PlainTextPreprocessor {
	return &PlainTextPreprocessor{}
}

// SetObserver sets the observability component
func (ptp *PlainTextPreprocessor) SetObserver(observer *observability.StandardObserver) {
	ptp.observer = observer
}

// GetName returns the name of this preprocessor
func (ptp *PlainTextPreprocessor) GetName() string {
	return "Plain Text Preprocessor"
}

// GetSupportedExtensions returns the file extensions this preprocessor supports
func (ptp *PlainTextPreprocessor) GetSupportedExtensions() []string {
	return []string{".txt", ".text", ".md", ".csv", ".log"}
}

// CanProcess accepts the supported extensions and files without one.
func (ptp *PlainTextPreprocessor) CanProcess(filePath string) bool {
	return filepath.Ext(filePath) == "" || hasExtension(filePath, ptp.GetSupportedExtensions())
}

// Process extracts text content from the file
func (ptp *PlainTextPreprocessor) Process(filePath string) (*ProcessedContent, error) {
	var finishTiming func(bool, map[string]interface{})
	if ptp.observer != nil {
		finishTiming = ptp.observer.StartTiming("plaintext_preprocessor", "process_file", filePath)
	}

	data, err := readLimited(filePath)
	if err != nil {
		if finishTiming != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	text, encoding := DecodeText(data)
	result := &ProcessedContent{
		OriginalPath:  filePath,
		Filename:      filepath.Base(filePath),
		Text:          text,
		Format:        "Plain Text",
		Encoding:      encoding,
		PageCount:     1,
		ProcessorType: "plaintext",
	}
	fillCounts(result)

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"encoding":   encoding,
			"word_count": result.WordCount,
			"line_count": result.LineCount,
		})
	}
	return result, nil
}

// DecodeText turns raw bytes into NFC text and names the encoding used.
// Valid UTF-8 loses its BOM; anything else is read as Windows-1252, or
// ISO-8859-1 when Windows-1252 leaves undefined bytes.
func DecodeText(data []byte) (string, string) {
	if utf8.Valid(data) {
		return norm.NFC.String(string(bytes.TrimPrefix(data, utf8BOM))), "utf-8"
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err == nil && !bytes.ContainsRune(decoded, utf8.RuneError) {
		return norm.NFC.String(string(decoded)), "windows-1252"
	}

	// ISO-8859-1 maps every byte.
	decoded, _ = charmap.ISO8859_1.NewDecoder().Bytes(data)
	return norm.NFC.String(string(decoded)), "iso-8859-1"
}

func readLimited(filePath string) ([]byte, error) {
	cleanPath := filepath.Clean(filePath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if info.Size() > maxTextFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), maxTextFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
