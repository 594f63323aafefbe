package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func contains(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestValidateGoodConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logo.png", "not really a png")
	path := writeFile(t, dir, "config.toml", `default_paper = "letter"

[institution]
name = "Royal Academy"
logo = "logo.png"
header_color = "#112233"

[contact]
lines = ["Phnom Penh"]

[word]
grid = "profile"
`)

	results, err := NewValidator(path, "").Validate()
	require.NoError(t, err)
	assert.True(t, results.Valid(), "errors: %v", results.Errors)
	assert.Empty(t, results.Warnings)
}

func TestValidateBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `default_paper = "tabloid"
colour = "blue"

[institution]
name = ""
header_color = "navy"
logo = "missing.png"

[fonts]
bold = "fonts/khmer-bold.ttf"

[images]
format = "gif"
jpeg_quality = 150

[word]
grid = "diagonal"
`)

	results, err := NewValidator(path, "").Validate()
	require.NoError(t, err)
	assert.False(t, results.Valid())

	for _, want := range []string{
		"default_paper",
		"institution.header_color",
		"institution.logo",
		"fonts.bold",
		"images.format",
		"word.grid",
	} {
		assert.True(t, contains(results.Errors, want), "missing error for %s in %v", want, results.Errors)
	}
	for _, want := range []string{"unknown config key: colour", "institution.name", "jpeg_quality"} {
		assert.True(t, contains(results.Warnings, want), "missing warning for %s in %v", want, results.Warnings)
	}
}

func TestValidateMissingConfig(t *testing.T) {
	_, err := NewValidator(filepath.Join(t.TempDir(), "nope.toml"), "").Validate()
	assert.Error(t, err)
}

func TestValidateUnparsableConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "default_paper = ")
	_, err := NewValidator(path, "").Validate()
	assert.Error(t, err)
}

func TestValidateRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.toml", `[institution]
name = "Royal Academy"
[contact]
lines = ["x"]
`)
	records := writeFile(t, dir, "records.json", `[
  {"id": 1, "student_code": "S1", "std_eng_name": "Dara", "profile_image": "a.png"},
  {"id": 2, "student_code": "S1", "std_eng_name": ""},
  {"id": 3, "student_code": "", "std_eng_name": "Sok", "profile_image": "b.png"}
]`)

	results, err := NewValidator(cfg, records).Validate()
	require.NoError(t, err)

	assert.Equal(t, []string{"record 3: student_code is missing"}, results.Errors)
	assert.True(t, contains(results.Warnings, "duplicate student codes, image exports will add suffixes: S1"))
	assert.True(t, contains(results.Warnings, "record 2 (S1): std_eng_name is empty"))
	assert.True(t, contains(results.Warnings, "1 record(s) have no profile_image"))
}

func TestValidateEmptyRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.toml", "")
	records := writeFile(t, dir, "records.json", `{"data": []}`)

	results, err := NewValidator(cfg, records).Validate()
	require.NoError(t, err)
	assert.True(t, contains(results.Errors, "no records"))
}
