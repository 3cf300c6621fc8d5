package pipeline

// Reporter receives user-facing progress of a run. Implementations must not
// block for long; they run on the orchestrator goroutine.
type Reporter interface {
	RunStarted(inputPath, model string)
	StageStarted(stage Stage)
	StageCompleted(stage Stage, result string)
	ArtifactWritten(path, article string)
	Persisted(id int64)
	Warn(msg string, err error)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) RunStarted(string, string)      {}
func (NopReporter) StageStarted(Stage)             {}
func (NopReporter) StageCompleted(Stage, string)   {}
func (NopReporter) ArtifactWritten(string, string) {}
func (NopReporter) Persisted(int64)                {}
func (NopReporter) Warn(string, error)             {}
