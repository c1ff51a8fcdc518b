// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	lerrors "lethe/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = "Contrato firmado por João da Silva, CPF 123.456.789-09, nascido em 15/03/1990.\n"

// setupWorkspace isolates the command from any config or dotenv file on the host.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LETHE_CONFIG_DIR", dir)
	t.Setenv("LETHE_PASSWORD", "")
	t.Chdir(dir)
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"lethe", "--no-color", "--log-level", "error"}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func writeDocument(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAnonymizeAndReverseRoundTrip(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)

	out, err := runCLI(t, "anonymize", "-p", "segredo", "-s", "42", input)
	require.NoError(t, err)
	assert.Contains(t, out, "anonymize: "+input)
	assert.Contains(t, out, "CPFs")

	anonymized := filepath.Join(dir, "contrato_anonimizado.txt")
	mappingFile := filepath.Join(dir, "contrato_mapping.lethe")
	require.FileExists(t, anonymized)
	require.FileExists(t, mappingFile)

	text, err := os.ReadFile(anonymized)
	require.NoError(t, err)
	assert.NotContains(t, string(text), "123.456.789-09")
	assert.NotContains(t, string(text), "15/03/1990")

	info, err := os.Stat(mappingFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = runCLI(t, "reverse", "-p", "segredo", anonymized, mappingFile)
	require.NoError(t, err)

	restored, err := os.ReadFile(filepath.Join(dir, "contrato_restaurado.txt"))
	require.NoError(t, err)
	assert.Equal(t, document, string(restored))
}

func TestAnonymizeIsReproducibleWithSeed(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "a.txt", document)

	_, err := runCLI(t, "anonymize", "-p", "x", "-s", "7", "-o", filepath.Join(dir, "first.txt"), "-m", filepath.Join(dir, "first.lethe"), input)
	require.NoError(t, err)
	_, err = runCLI(t, "anonymize", "-p", "x", "-s", "7", "-o", filepath.Join(dir, "second.txt"), "-m", filepath.Join(dir, "second.lethe"), input)
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "first.txt"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "second.txt"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestReverseWithWrongPassword(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)

	_, err := runCLI(t, "anonymize", "-p", "certa", input)
	require.NoError(t, err)

	_, err = runCLI(t, "reverse", "-p", "errada",
		filepath.Join(dir, "contrato_anonimizado.txt"),
		filepath.Join(dir, "contrato_mapping.lethe"))
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.ErrAuthentication))
	assert.Equal(t, "wrong password, or the mapping file was modified", describeError(err))
	assert.NoFileExists(t, filepath.Join(dir, "contrato_restaurado.txt"))
}

func TestReverseDetectsEditedText(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)

	_, err := runCLI(t, "anonymize", "-p", "x", input)
	require.NoError(t, err)

	anonymized := filepath.Join(dir, "contrato_anonimizado.txt")
	require.NoError(t, os.WriteFile(anonymized, []byte("texto reescrito por completo\n"), 0o600))

	_, err = runCLI(t, "reverse", "-p", "x", anonymized, filepath.Join(dir, "contrato_mapping.lethe"))
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.ErrReversal))
}

func TestPasswordFromEnvironment(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)
	t.Setenv("LETHE_PASSWORD", "do-ambiente")

	_, err := runCLI(t, "anonymize", input)
	require.NoError(t, err)

	_, err = runCLI(t, "reverse", "-p", "do-ambiente",
		filepath.Join(dir, "contrato_anonimizado.txt"),
		filepath.Join(dir, "contrato_mapping.lethe"))
	assert.NoError(t, err)
}

func TestAnonymizeWithoutPassword(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)

	_, err := runCLI(t, "anonymize", input)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoPassword)
}

func TestAnonymizeRejectsOutputFlagsForBatches(t *testing.T) {
	dir := setupWorkspace(t)
	a := writeDocument(t, dir, "a.txt", document)
	b := writeDocument(t, dir, "b.txt", document)

	_, err := runCLI(t, "anonymize", "-p", "x", "-o", "out.txt", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single file")
}

func TestAnonymizeBatch(t *testing.T) {
	dir := setupWorkspace(t)
	a := writeDocument(t, dir, "a.txt", document)
	b := writeDocument(t, dir, "b.txt", "Sem dados pessoais aqui.\n")

	out, err := runCLI(t, "anonymize", "-p", "x", "--format", "json", a, b)
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, a, reports[0]["file"])
	assert.Equal(t, b, reports[1]["file"])
	assert.NotContains(t, reports[0], "mapping")

	assert.FileExists(t, filepath.Join(dir, "b_anonimizado.txt"))
	assert.FileExists(t, filepath.Join(dir, "b_mapping.lethe"))
}

func TestAnonymizeUnsupportedFormat(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "legado.doc", "binario")

	_, err := runCLI(t, "anonymize", "-p", "x", input)
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.ErrUnsupportedFormat))
	assert.Contains(t, describeError(err), ".docx")
}

func TestDetect(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)

	out, err := runCLI(t, "detect", "--format", "json", "--show-match", input)
	require.NoError(t, err)

	var reports []struct {
		Summary  map[string]int `json:"summary"`
		Findings []struct {
			Type string `json:"type"`
			Text string `json:"text"`
			Line int    `json:"line"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Summary["NATIONAL_ID_A"])
	assert.Equal(t, 1, reports[0].Summary["BIRTH_DATE"])

	var texts []string
	for _, f := range reports[0].Findings {
		texts = append(texts, f.Text)
		assert.Equal(t, 1, f.Line)
	}
	assert.Contains(t, texts, "123.456.789-09")

	// detection leaves the input alone
	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, document, string(data))
}

func TestDetectHidesMatchesByDefault(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)

	out, err := runCLI(t, "detect", input)
	require.NoError(t, err)
	assert.Contains(t, out, "[HIDDEN]")
	assert.NotContains(t, out, "123.456.789-09")
}

func TestInfo(t *testing.T) {
	setupWorkspace(t)

	out, err := runCLI(t, "info")
	require.NoError(t, err)
	for _, want := range []string{"PERSON", "NATIONAL_ID_A", "NATIONAL_ID_B", "BIRTH_DATE", "480000 iterations", ".docx", ".pdf", ".lethe"} {
		assert.Contains(t, out, want)
	}

	out, err = runCLI(t, "info", "national_id_a")
	require.NoError(t, err)
	assert.Contains(t, out, "CPFs")

	_, err = runCLI(t, "info", "PASSPORT")
	assert.Error(t, err)
}

func TestMetricsTextfile(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)
	metricsFile := filepath.Join(dir, "lethe.prom")

	_, err := runCLI(t, "--metrics-file", metricsFile, "anonymize", "-p", "x", input)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lethe_documents_processed_total")
}

func TestMalformedDotEnvStopsTheRun(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeDocument(t, dir, "contrato.txt", document)
	writeDocument(t, dir, ".env", "LETHE_WORKERS='4\n")

	_, err := runCLI(t, "anonymize", "-p", "x", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
	assert.NoFileExists(t, filepath.Join(dir, "contrato_anonimizado.txt"))
}

func TestVersion(t *testing.T) {
	setupWorkspace(t)

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lethe")
}
