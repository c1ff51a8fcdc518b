// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	lerrors "lethe/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writeDocx(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contrato.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

const wordDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Contratante: </w:t></w:r><w:r><w:t>João da Silva</w:t></w:r></w:p>
<w:p><w:r><w:t>CPF</w:t><w:tab/><w:t>123.456.789-09</w:t></w:r></w:p>
</w:body>
</w:document>`

const wordFooter = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:p><w:r><w:t>Página 1</w:t></w:r></w:p>
</w:ftr>`

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		want     string
		encoding string
	}{
		{"utf-8", []byte("João"), "João", "utf-8"},
		{"utf-8 with BOM", []byte("\xEF\xBB\xBFJoão"), "João", "utf-8"},
		{"decomposed is normalized", []byte("Joa\u0303o"), "Jo\u00e3o", "utf-8"},
		{"windows-1252", []byte("Jo\xe3o \x93aspas\x94"), "João “aspas”", "windows-1252"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, encoding := DecodeText(tt.data)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.encoding, encoding)
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	path := writeFile(t, "nota.txt", []byte("Nome: Maria Souza\nRG 12.345.678-9\n"))

	content, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Nome: Maria Souza\nRG 12.345.678-9\n", content.Text)
	assert.Equal(t, "plaintext", content.ProcessorType)
	assert.Equal(t, "nota.txt", content.Filename)
	assert.Equal(t, 5, content.WordCount)
	assert.Equal(t, 3, content.LineCount)
	assert.Equal(t, 1, content.PageCount)
}

func TestExtractFileWithoutExtension(t *testing.T) {
	path := writeFile(t, "LEIAME", []byte("texto"))
	content, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "texto", content.Text)
}

func TestExtractDocx(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": wordDoc,
		"word/footer1.xml":  wordFooter,
	})

	content, err := NewRegistry().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "docx", content.ProcessorType)
	assert.Equal(t, "Contratante: João da Silva\nCPF\t123.456.789-09\n\nPágina 1", content.Text)
}

func TestExtractDocxWithoutDocumentPart(t *testing.T) {
	path := writeDocx(t, map[string]string{"word/styles.xml": "<styles/>"})
	_, err := NewRegistry().Extract(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document.xml")
}

func TestParseWordXMLIgnoresOtherNamespaces(t *testing.T) {
	const doc = `<w:document xmlns:w="` + wordprocessingNS + `" xmlns:x="urn:other">` +
		`<w:p><x:t>oculto</x:t><w:r><w:t>visível</w:t><w:br/><w:t>linha</w:t></w:r></w:p></w:document>`
	got, err := parseWordXML(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "visível\nlinha", got)
}

func TestExtractUnsupportedFormats(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"antigo.doc", "planilha.xlsx", "foto.jpg"} {
		t.Run(name, func(t *testing.T) {
			_, err := registry.Extract(writeFile(t, name, []byte("x")))
			require.Error(t, err)
			assert.True(t, lerrors.Is(err, lerrors.ErrUnsupportedFormat))
		})
	}

	_, err := registry.Extract("antigo.doc")
	assert.Contains(t, err.Error(), ".docx")
}

func TestExtractInvalidPDF(t *testing.T) {
	path := writeFile(t, "falso.pdf", []byte("not a pdf"))
	_, err := NewRegistry().Extract(path)
	require.Error(t, err)
	assert.False(t, lerrors.Is(err, lerrors.ErrUnsupportedFormat))
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewRegistry().Extract(filepath.Join(t.TempDir(), "nada.txt"))
	require.Error(t, err)
	assert.False(t, lerrors.Is(err, lerrors.ErrUnsupportedFormat))
}

func TestSupportedExtensions(t *testing.T) {
	exts := NewRegistry().SupportedExtensions()
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".docx")
	assert.Contains(t, exts, ".pdf")
	assert.NotContains(t, exts, ".doc")
}
