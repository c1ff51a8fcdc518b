// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"lethe/internal/observability"

	"golang.org/x/text/unicode/norm"
)

const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// DocxPreprocessor extracts the text of Word documents: the body first, then
// headers, then footers.
type DocxPreprocessor struct {
	observer *observability.StandardObserver
}

// NewDocxPreprocessor creates a new DOCX preprocessor
func NewDocxPreprocessor() *DocxPreprocessor {
	return &DocxPreprocessor{}
}

// SetObserver sets the observability component
func (dp *DocxPreprocessor) SetObserver(observer *observability.StandardObserver) {
	dp.observer = observer
}

// GetName returns the name of this preprocessor
func (dp *DocxPreprocessor) GetName() string {
	return "DOCX Preprocessor"
}

// GetSupportedExtensions returns the file extensions this preprocessor supports
func (dp *DocxPreprocessor) GetSupportedExtensions() []string {
	return []string{".docx"}
}

// CanProcess checks if this preprocessor can handle the given file
func (dp *DocxPreprocessor) CanProcess(filePath string) bool {
	return hasExtension(filePath, dp.GetSupportedExtensions())
}

// Process extracts text content from the file
func (dp *DocxPreprocessor) Process(filePath string) (*ProcessedContent, error) {
	var finishTiming func(bool, map[string]interface{})
	if dp.observer != nil {
		finishTiming = dp.observer.StartTiming("docx_preprocessor", "process_file", filePath)
	}

	text, err := extractDocx(filePath)
	if err != nil {
		if finishTiming != nil {
			finishTiming(false, map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}

	result := &ProcessedContent{
		OriginalPath:  filePath,
		Filename:      filepath.Base(filePath),
		Text:          norm.NFC.String(text),
		Format:        "Microsoft Word Document",
		Encoding:      "utf-8",
		PageCount:     1,
		ProcessorType: "docx",
	}
	fillCounts(result)

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{"word_count": result.WordCount})
	}
	return result, nil
}

func extractDocx(filePath string) (string, error) {
	reader, err := zip.OpenReader(filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX archive: %w", err)
	}
	defer reader.Close()

	var document *zip.File
	var headers, footers []*zip.File
	for _, file := range reader.File {
		switch {
		case file.Name == "word/document.xml":
			document = file
		case strings.HasPrefix(file.Name, "word/header") && strings.HasSuffix(file.Name, ".xml"):
			headers = append(headers, file)
		case strings.HasPrefix(file.Name, "word/footer") && strings.HasSuffix(file.Name, ".xml"):
			footers = append(footers, file)
		}
	}
	if document == nil {
		return "", errors.New("word/document.xml not found in the archive")
	}
	byName := func(a, b *zip.File) int { return strings.Compare(a.Name, b.Name) }
	slices.SortFunc(headers, byName)
	slices.SortFunc(footers, byName)

	parts := make([]string, 0, 1+len(headers)+len(footers))
	for _, file := range append([]*zip.File{document}, append(headers, footers...)...) {
		text, err := wordXMLText(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// wordXMLText walks a WordprocessingML part. Runs of w:t are concatenated,
// w:tab becomes a tab, w:br and w:cr become newlines and every paragraph
// ends with a newline.
func wordXMLText(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return parseWordXML(rc)
}

func parseWordXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
