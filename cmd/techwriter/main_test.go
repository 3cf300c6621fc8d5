package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techwriter/internal/config"
	"techwriter/internal/pipeline"
	"techwriter/internal/store"
)

// fakeGemini answers every generateContent call with "reply N".
type fakeGemini struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"reply %d"}]},"finishReason":"STOP"}]}`, n)
}

func (f *fakeGemini) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testEnv points the CLI at a fake Gemini endpoint and a SQLite file.
func testEnv(t *testing.T) (fake *fakeGemini, dbPath string) {
	t.Helper()
	fake = &fakeGemini{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	dbPath = filepath.Join(t.TempDir(), "runs.db")
	for k, v := range map[string]string{
		"GEMINI_API_KEY":           "test-key",
		"GEMINI_MODEL":             "",
		"GEMINI_MAX_OUTPUT_TOKENS": "",
		"GEMINI_BASE_URL":          srv.URL,
		"DB_DRIVER":                config.DriverSQLite,
		"DB_PATH":                  dbPath,
		"DB_POOL_MIN":              "",
		"DB_POOL_MAX":              "",
		"TECHWRITER_LOG_LEVEL":     "error",
	} {
		t.Setenv(k, v)
	}
	return fake, dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeArticle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "article.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nA dense paragraph.\n"), 0o644))
	return path
}

func countRuns(t *testing.T, dbPath string) int64 {
	t.Helper()
	pool, err := store.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer pool.Close()
	n, err := store.NewFromPool(pool).Count(t.Context())
	require.NoError(t, err)
	return n
}

func TestRoot_RequiresTwoArgs(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "only-one.md")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestRoot_MissingAPIKey(t *testing.T) {
	testEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := execute(t, writeArticle(t), filepath.Join(t.TempDir(), "out.md"))
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
}

func TestRoot_InputNotFound(t *testing.T) {
	fake, dbPath := testEnv(t)
	output := filepath.Join(t.TempDir(), "out.md")

	_, err := execute(t, filepath.Join(t.TempDir(), "missing.md"), output)
	assert.ErrorIs(t, err, pipeline.ErrInputNotFound)
	assert.NoFileExists(t, output)
	assert.Zero(t, fake.count())
	assert.Zero(t, countRuns(t, dbPath))
}

func TestRoot_FullRunThenHistory(t *testing.T) {
	fake, dbPath := testEnv(t)
	output := filepath.Join(t.TempDir(), "out.md")

	out, err := execute(t, writeArticle(t), output)
	require.NoError(t, err)
	assert.Contains(t, out, "Article saved to "+output)
	assert.Equal(t, 3, fake.count())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, "# Step 1: Diagnostic Report (Analyst)\n\nreply 1"))
	assert.Contains(t, doc, "# Step 2: Refactor Blueprint (Architect)\n\nreply 2")
	assert.Contains(t, doc, "# Step 3: Final Article\n\nreply 3")
	assert.EqualValues(t, 1, countRuns(t, dbPath))

	out, err = execute(t, "history", "count")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = execute(t, "history", "list", "--format", "json")
	require.NoError(t, err)
	var records []store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "# Title\n\nA dense paragraph.\n", records[0].OriginalContent)
	assert.Equal(t, "reply 3", records[0].WriterResult)

	out, err = execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "# Title")

	out, err = execute(t, "history", "show", fmt.Sprint(records[0].ID), "--format", "json")
	require.NoError(t, err)
	var rec store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, records[0].ID, rec.ID)
	assert.True(t, strings.HasPrefix(rec.AnalystPrompt, "System Prompt:\n"))
}

func TestRoot_NoDBSkipsPersistence(t *testing.T) {
	_, dbPath := testEnv(t)
	output := filepath.Join(t.TempDir(), "out.md")

	_, err := execute(t, "--no-db", writeArticle(t), output)
	require.NoError(t, err)
	assert.FileExists(t, output)
	assert.NoFileExists(t, dbPath)
}

func TestRoot_NoDBIgnoresDatabaseConfig(t *testing.T) {
	testEnv(t)
	t.Setenv("DB_POOL_MAX", "0")
	output := filepath.Join(t.TempDir(), "out.md")

	_, err := execute(t, "--no-db", writeArticle(t), output)
	require.NoError(t, err)
	assert.FileExists(t, output)

	_, err = execute(t, writeArticle(t), filepath.Join(t.TempDir(), "other.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_POOL_MAX")
}

func TestRoot_LoadsEnvFile(t *testing.T) {
	testEnv(t)
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600))
	output := filepath.Join(t.TempDir(), "out.md")

	_, err := execute(t, "--env-file", envFile, "--no-db", writeArticle(t), output)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", os.Getenv("GEMINI_API_KEY"))
	assert.FileExists(t, output)
}

func TestRoot_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	testEnv(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600))

	_, err := execute(t, "--env-file", envFile, "--no-db", writeArticle(t), filepath.Join(t.TempDir(), "out.md"))
	require.NoError(t, err)
	assert.Equal(t, "test-key", os.Getenv("GEMINI_API_KEY"))
}

func TestRoot_MissingEnvFile(t *testing.T) {
	testEnv(t)
	missing := filepath.Join(t.TempDir(), "absent.env")

	_, err := execute(t, "--env-file", missing, "--no-db", writeArticle(t), filepath.Join(t.TempDir(), "out.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.env")

	// the default .env is optional
	_, err = execute(t, "--no-db", writeArticle(t), filepath.Join(t.TempDir(), "out.md"))
	require.NoError(t, err)
}

func TestHistory_ShowUnknownID(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "history", "show", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 999 not found")

	_, err = execute(t, "history", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
}

func TestHistory_ListEmptyAndBadFormat(t *testing.T) {
	testEnv(t)
	out, err := execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs logged yet.")

	_, err = execute(t, "history", "list", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestDBInit(t *testing.T) {
	_, dbPath := testEnv(t)
	out, err := execute(t, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Table "+store.TableName+" is ready.")
	assert.Zero(t, countRuns(t, dbPath))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "# Title", firstLine("\n# Title\nbody"))
	assert.Equal(t, "single", firstLine("single"))
}
