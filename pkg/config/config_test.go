package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiredFieldMissing(t *testing.T) {
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", "")
	t.Setenv(ConfigFileEnv, "/nonexistent/config.yaml")

	cfg, err := New()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeConfiguration))
	assert.Contains(t, err.Error(), "missing required config")
	assert.Contains(t, err.Error(), "ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE")
	assert.Contains(t, err.Error(), "folder_to_organize")
}

func TestNew_WithEnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", dir)
	t.Setenv(ConfigFileEnv, "/nonexistent/config.yaml")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.FolderToOrganize)
}

func TestNew_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
folder_to_organize: ` + tmpDir + `
max_isbns: 3
dry_run: true
isbn_metadata_fetch_order:
  - Google
  - ISBNDB
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv(ConfigFileEnv, configPath)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, tmpDir, cfg.FolderToOrganize)
	assert.Equal(t, 3, cfg.MaxISBNs)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"Google", "ISBNDB"}, cfg.ISBNMetadataFetchOrder)
}

func TestNew_EnvVarOverridesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
folder_to_organize: ` + tmpDir + `
max_isbns: 3
ocr_enabled: "true"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv(ConfigFileEnv, configPath)
	t.Setenv("ORGANIZE_EBOOKS_MAX_ISBNS", "7")
	t.Setenv("ORGANIZE_EBOOKS_ORGANIZE_WITHOUT_ISBN_SOURCES", "Google, Amazon.com")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxISBNs)
	assert.Equal(t, "true", cfg.OCREnabled)
	assert.Equal(t, []string{"Google", "Amazon.com"}, cfg.OrganizeWithoutISBNSources)
}

func TestNew_OverridesWin(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", dir)
	t.Setenv("ORGANIZE_EBOOKS_REVERSE", "false")
	t.Setenv(ConfigFileEnv, "")

	cfg, err := New(WithOverrides(map[string]interface{}{
		"reverse":          true,
		"corruption_check": "CHECK_ONLY",
	}))
	require.NoError(t, err)
	assert.True(t, cfg.Reverse)
	assert.Equal(t, "check_only", cfg.CorruptionCheck)
}

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", dir)
	t.Setenv(ConfigFileEnv, "/nonexistent/config.yaml")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputFolder)
	assert.Equal(t, 5, cfg.MaxISBNs)
	assert.True(t, cfg.ISBNReorderFiles)
	assert.Equal(t, 400, cfg.ISBNReorderFirstLines)
	assert.Equal(t, 50, cfg.ISBNReorderLastLines)
	assert.Equal(t, " - ", cfg.ISBNReturnSeparator)
	assert.Equal(t, resolver.DefaultFetchOrder, cfg.ISBNMetadataFetchOrder)
	assert.Equal(t, resolver.DefaultWithoutISBNSources, cfg.OrganizeWithoutISBNSources)
	assert.Equal(t, "true", cfg.CorruptionCheck)
	assert.Equal(t, "false", cfg.OCREnabled)
	assert.True(t, cfg.OCROnlyFirstLastPages)
	assert.Equal(t, 7, cfg.OCRFirstPages)
	assert.Equal(t, 3, cfg.OCRLastPages)
	assert.Equal(t, 50, cfg.PamphletMaxPDFPages)
	assert.Equal(t, int64(250), cfg.PamphletMaxFilesizeKiB)
	assert.Equal(t, "meta", cfg.OutputMetadataExtension)
	assert.Equal(t, 5*time.Second, cfg.JournalBusyTimeout)
	assert.Equal(t, 2*time.Second, cfg.JournalConnectRetryDelay)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.WithoutISBNIgnore)
}

func TestNew_ExplicitZeroIsKept(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
folder_to_organize: ` + tmpDir + `
pamphlet_max_pdf_pages: 0
pamphlet_max_filesize_kib: 0
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	t.Setenv(ConfigFileEnv, configPath)
	t.Setenv("ORGANIZE_EBOOKS_ISBN_REORDER_LAST_LINES", "0")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.PamphletMaxPDFPages)
	assert.Equal(t, int64(0), cfg.PamphletMaxFilesizeKiB)
	assert.Equal(t, 0, cfg.ISBNReorderLastLines)
}

func TestNew_InvalidEnum(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", dir)
	t.Setenv("ORGANIZE_EBOOKS_OCR_ENABLED", "sometimes")
	t.Setenv(ConfigFileEnv, "")

	_, err := New()
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeConfiguration))
	assert.Contains(t, err.Error(), "ocr_enabled")
	assert.Contains(t, err.Error(), "ORGANIZE_EBOOKS_OCR_ENABLED")
}

func TestNew_MissingFolder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", dir)
	t.Setenv("ORGANIZE_EBOOKS_OUTPUT_FOLDER_CORRUPT", filepath.Join(dir, "missing"))
	t.Setenv(ConfigFileEnv, "")

	_, err := New()
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeConfiguration))
	assert.Contains(t, err.Error(), "Folder doesn't exist")
}

func TestNew_ExplicitConfigFileMustExist(t *testing.T) {
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", t.TempDir())

	_, err := New(WithConfigFile("/nonexistent/config.yaml"))
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeConfiguration))
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest()
	assert.Equal(t, ":memory:", cfg.JournalFilePath)
	assert.Equal(t, 5, cfg.MaxISBNs)
	assert.NotEmpty(t, cfg.OutputFilenameTemplate)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", envName("folder_to_organize"))
	assert.Equal(t, "ORGANIZE_EBOOKS_MAX_ISBNS", envName("max_isbns"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Goodreads", "WorldCat xISBN"}, splitList(" Goodreads ,, WorldCat xISBN "))
	assert.Equal(t, []string{}, splitList(""))
}

func TestNew_WithoutFolders(t *testing.T) {
	t.Setenv("ORGANIZE_EBOOKS_FOLDER_TO_ORGANIZE", "")
	t.Setenv("ORGANIZE_EBOOKS_OUTPUT_FOLDER", "/nonexistent/output")
	t.Setenv(ConfigFileEnv, "")

	cfg, err := New(WithoutFolders())
	require.NoError(t, err)
	assert.Equal(t, "/nonexistent/output", cfg.OutputFolder)
}
