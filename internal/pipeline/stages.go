package pipeline

import (
	"fmt"
	"strings"
)

// Template placeholders. Substitution is a single pass, so text inserted for
// one placeholder is never scanned for another.
const (
	PlaceholderArticle   = "{article_content}"
	PlaceholderAnalysis  = "{analysis_content}"
	PlaceholderBlueprint = "{blueprint_content}"
)

// Vars are the values substituted into stage templates.
type Vars struct {
	Article   string
	Analysis  string
	Blueprint string
}

// Stage is one LLM invocation in the pipeline.
type Stage struct {
	Name   string // Analyst, Architect, Writer
	Title  string // heading used in the output artifact
	State  State  // state while the stage runs
	System string
	User   string
}

// Render substitutes vars into the stage templates. It is a pure function of
// the stage and vars.
func (s Stage) Render(vars Vars) (system, user string) {
	r := strings.NewReplacer(
		PlaceholderArticle, vars.Article,
		PlaceholderAnalysis, vars.Analysis,
		PlaceholderBlueprint, vars.Blueprint,
	)
	return r.Replace(s.System), r.Replace(s.User)
}

// Label names the stage for progress output.
func (s Stage) Label() string {
	return fmt.Sprintf("%s Agent", s.Name)
}

// StageOutput is what one stage sent and received.
type StageOutput struct {
	Stage  string
	System string
	User   string
	Result string
}

// FullPrompt is the labelled system+user prompt stored with the record.
func (o StageOutput) FullPrompt() string {
	return "System Prompt:\n" + o.System + "\n\nUser Prompt:\n" + o.User
}

// Analyst diagnoses where the article overloads the reader.
var Analyst = Stage{
	Name:  "Analyst",
	Title: "Step 1: Diagnostic Report (Analyst)",
	State: StateAnalyzing,
	System: `You are a senior technical editor acting as an unforgiving analyst.
Your only job is diagnosis: find every place where the article imposes unnecessary cognitive load on the reader.
Look for long sentences with stacked sub-clauses, undefined jargon and acronyms, concepts used before they are introduced,
buried conclusions, missing examples, and sections whose order fights the reader's mental model.
Do not rewrite the article. Quote the offending passage, name the problem, and explain its cost to the reader.
Answer in Markdown with one section per problem, ordered from most to least severe.`,
	User: `Diagnose the following article.

<article>
{article_content}
</article>`,
}

// Architect turns the diagnosis into a rewrite plan without writing prose.
var Architect = Stage{
	Name:  "Architect",
	Title: "Step 2: Refactor Blueprint (Architect)",
	State: StateArchitecting,
	System: `You are a documentation architect.
Given an article and a diagnostic report, design a blueprint for the rewrite. Do not write the final prose.
Specify the target audience and what they already know, the new outline with the purpose of every section,
which concepts must be introduced first and how, where examples or diagrams are needed, and which material should be cut.
Every decision must trace back to a problem in the diagnostic report.
Answer in Markdown.`,
	User: `<article>
{article_content}
</article>

<diagnostic_report>
{analysis_content}
</diagnostic_report>

Produce the refactor blueprint.`,
}

// Writer executes the blueprint and produces the final article.
var Writer = Stage{
	Name:  "Writer",
	Title: "Step 3: Final Article",
	State: StateWriting,
	System: `You are a technical writer who executes a blueprint faithfully.
Rewrite the article following the blueprint exactly. Keep every technical fact from the original and invent none.
Prefer short sentences, define terms at first use, and lead each section with its point.
Output only the final article in Markdown, with no commentary before or after it.`,
	User: `<article>
{article_content}
</article>

<diagnostic_report>
{analysis_content}
</diagnostic_report>

<blueprint>
{blueprint_content}
</blueprint>

Write the final article.`,
}
