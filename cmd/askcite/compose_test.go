package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/liliang-cn/askcite/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	composeCmd.ResetFlags()
	addComposeFlags(composeCmd)
	configPath = ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func setupCompose(t *testing.T, answer domain.WireAnswer) (configFile, answerFile string) {
	t.Helper()
	dir := t.TempDir()
	configFile = writeFile(t, dir, "askcite.yaml", fmt.Sprintf("database:\n  path: %s\n", filepath.Join(dir, "askcite.db")))

	data, err := json.Marshal(answer)
	require.NoError(t, err)
	answerFile = writeFile(t, dir, "answer.json", string(data))
	return configFile, answerFile
}

func sampleAnswer() domain.WireAnswer {
	return domain.WireAnswer{
		Text:  "Pulse motors are efficient",
		State: "SUCCEEDED",
		Citations: []domain.WireCitation{
			{EndIndex: "12", Sources: []domain.WireCitationSource{{ReferenceIndex: "0"}}},
			{EndIndex: "26", Sources: []domain.WireCitationSource{{ReferenceIndex: "2"}}},
		},
		References: []domain.WireReference{
			{Title: "Bedini SSG", VideoID: "vid1", TimestampStart: 95},
			{Title: "unused", VideoID: "x"},
			{Title: "Notes", DocumentID: "n1", SourceType: "docx", SectionHeading: "Coils"},
		},
	}
}

func TestComposeCmd_Text(t *testing.T) {
	cfg, answer := setupCompose(t, sampleAnswer())

	out, err := runCLI(t, "compose", "--config", cfg, "--file", answer, "--query", "are they efficient?")

	require.NoError(t, err)
	assert.Contains(t, out, "Q: are they efficient?")
	assert.Contains(t, out, "Pulse motors[1] are efficient[2]")
	assert.Contains(t, out, "[1] Bedini SSG (video, 95s) https://www.youtube.com/watch?v=vid1&t=95s")
	assert.Contains(t, out, "[2] Notes (docx, Coils)")
}

func TestComposeCmd_JSON(t *testing.T) {
	cfg, answer := setupCompose(t, sampleAnswer())

	out, err := runCLI(t, "compose", "--config", cfg, "--file", answer, "--json")

	require.NoError(t, err)
	var composed domain.ComposedAnswer
	require.NoError(t, json.Unmarshal([]byte(out), &composed))
	assert.Equal(t, "Pulse motors[1] are efficient[2]", composed.AnnotatedText)
	assert.Len(t, composed.Citations, 2)
}

func TestComposeCmd_Inline(t *testing.T) {
	cfg, answer := setupCompose(t, domain.WireAnswer{
		Text:       "Coils matter [3].",
		State:      "SUCCEEDED",
		References: []domain.WireReference{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "c", Title: "Coil video"}},
	})

	out, err := runCLI(t, "compose", "--config", cfg, "--file", answer, "--inline")

	require.NoError(t, err)
	assert.Contains(t, out, "Coils matter [1].")
	assert.Contains(t, out, "[1] Coil video (video, 0s)")
}

func TestComposeCmd_UpstreamFailure(t *testing.T) {
	cfg, answer := setupCompose(t, domain.WireAnswer{State: "FAILED", SkipReasons: []string{"NO_RELEVANT_CONTENT"}})

	_, err := runCLI(t, "compose", "--config", cfg, "--file", answer)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamFailure)
	assert.Contains(t, err.Error(), "NO_RELEVANT_CONTENT")
}

func TestComposeCmd_EmptyQuery(t *testing.T) {
	cfg, answer := setupCompose(t, sampleAnswer())

	out, err := runCLI(t, "compose", "--config", cfg, "--file", answer, "--query", " ")

	require.NoError(t, err)
	assert.Contains(t, out, domain.EmptyInputPrompt)
}

func TestComposeCmd_RequiresFile(t *testing.T) {
	_, err := runCLI(t, "compose")
	assert.Error(t, err)
}
