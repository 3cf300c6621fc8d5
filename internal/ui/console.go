package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"techwriter/internal/pipeline"
)

// PreviewLimit is how many characters of the final article are echoed.
const PreviewLimit = 500

// Console prints run progress as styled panels. It implements
// pipeline.Reporter.
type Console struct {
	out      io.Writer
	styles   Styles
	renderer *glamour.TermRenderer
	logger   *zap.Logger
}

// ConsoleOption configures a Console.
type ConsoleOption func(*consoleOptions)

type consoleOptions struct {
	styles Styles
	plain  bool
	width  int
	logger *zap.Logger
}

// WithStyles overrides the detected styles.
func WithStyles(s Styles) ConsoleOption {
	return func(o *consoleOptions) { o.styles = s }
}

// WithPlainMarkdown renders markdown without ANSI styling.
func WithPlainMarkdown() ConsoleOption {
	return func(o *consoleOptions) { o.plain = true }
}

// WithWordWrap sets the markdown wrap width.
func WithWordWrap(width int) ConsoleOption {
	return func(o *consoleOptions) { o.width = width }
}

// WithConsoleLogger receives renderer failures.
func WithConsoleLogger(l *zap.Logger) ConsoleOption {
	return func(o *consoleOptions) { o.logger = l }
}

// NewConsole writes to out.
func NewConsole(out io.Writer, opts ...ConsoleOption) *Console {
	o := consoleOptions{styles: DefaultStyles(), width: 100, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	style := glamour.WithAutoStyle()
	if o.plain {
		style = glamour.WithStylePath("notty")
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(o.width))
	if err != nil {
		// fall back to raw markdown
		o.logger.Warn("Markdown renderer unavailable", zap.Error(err))
		renderer = nil
	}

	return &Console{out: out, styles: o.styles, renderer: renderer, logger: o.logger}
}

var _ pipeline.Reporter = (*Console)(nil)

func (c *Console) RunStarted(inputPath, model string) {
	body := fmt.Sprintf("%s %s\n%s %s",
		c.styles.Muted.Render("article:"), inputPath,
		c.styles.Muted.Render("model:  "), model)
	c.println(c.panel("Technical Writer Pipeline", body))
}

func (c *Console) StageStarted(stage pipeline.Stage) {
	c.println(c.styles.Info.Render("▶ " + stage.Label() + ": " + stage.Title))
}

func (c *Console) StageCompleted(stage pipeline.Stage, result string) {
	c.println(c.panel(stage.Title, c.markdown(result)))
}

func (c *Console) ArtifactWritten(path, article string) {
	c.println(c.styles.Success.Render("✔ Article saved to " + path))
	c.println(c.panel("Final Article Preview", c.markdown(Preview(article, PreviewLimit))))
}

func (c *Console) Persisted(id int64) {
	c.println(c.styles.Success.Render(fmt.Sprintf("✔ Run saved to database (id %d)", id)))
}

func (c *Console) Warn(msg string, err error) {
	line := "⚠ " + msg
	if err != nil {
		line += ": " + err.Error()
	}
	c.println(c.styles.Warning.Render(line))
}

// Error prints a fatal error.
func (c *Console) Error(err error) {
	c.println(c.styles.Error.Render("✘ " + err.Error()))
}

// Markdown prints rendered markdown without a panel.
func (c *Console) Markdown(md string) {
	c.println(c.markdown(md))
}

// Print writes a pre-rendered block.
func (c *Console) Print(s string) {
	c.println(s)
}

// Styles returns the console styles.
func (c *Console) Styles() Styles {
	return c.styles
}

func (c *Console) panel(title, body string) string {
	return c.styles.Panel.Render(c.styles.Title.Render(title) + "\n\n" + strings.TrimRight(body, "\n"))
}

func (c *Console) markdown(md string) string {
	if c.renderer == nil {
		return md
	}
	out, err := c.renderer.Render(md)
	if err != nil {
		c.logger.Debug("Markdown render failed", zap.Error(err))
		return md
	}
	return strings.Trim(out, "\n")
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

// Preview returns at most limit runes of s, marking truncation with "...".
func Preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
