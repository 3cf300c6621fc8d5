package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sectionSeparator = "\n\n---\n\n"

// ComposeArtifact joins the stage outputs into the markdown document written
// to the output path, one headed section per stage in pipeline order.
func ComposeArtifact(outputs []StageOutput, stages []Stage) string {
	sections := make([]string, 0, len(outputs))
	for i, out := range outputs {
		sections = append(sections, fmt.Sprintf("# %s\n\n%s", stages[i].Title, out.Result))
	}
	return strings.Join(sections, sectionSeparator) + "\n"
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place. Readers see either the old file or the whole new one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
