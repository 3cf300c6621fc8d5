package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_SubstitutesAllPlaceholders(t *testing.T) {
	stage := Stage{
		System: "sys {article_content}",
		User:   "a={article_content} b={analysis_content} c={blueprint_content}",
	}
	sys, user := stage.Render(Vars{Article: "A", Analysis: "B", Blueprint: "C"})

	assert.Equal(t, "sys A", sys)
	assert.Equal(t, "a=A b=B c=C", user)
}

func TestRender_IsDeterministic(t *testing.T) {
	vars := Vars{Article: "article", Analysis: "analysis", Blueprint: "blueprint"}
	for _, stage := range []Stage{Analyst, Architect, Writer} {
		s1, u1 := stage.Render(vars)
		s2, u2 := stage.Render(vars)
		assert.Equal(t, s1, s2, stage.Name)
		assert.Equal(t, u1, u2, stage.Name)
	}
}

func TestRender_DoesNotReexpandInsertedContent(t *testing.T) {
	stage := Stage{User: "{article_content}|{analysis_content}"}
	vars := Vars{
		Article:  "my article mentions {analysis_content} literally",
		Analysis: "and the analysis mentions {article_content}",
	}
	_, user := stage.Render(vars)

	assert.Equal(t, vars.Article+"|"+vars.Analysis, user)
}

func TestRender_DoesNotMutateStage(t *testing.T) {
	before := Writer
	Writer.Render(Vars{Article: "x", Analysis: "y", Blueprint: "z"})
	assert.Equal(t, before, Writer)
}

func TestStages_DataFlow(t *testing.T) {
	vars := Vars{Article: "ARTICLE", Analysis: "ANALYSIS", Blueprint: "BLUEPRINT"}

	_, user := Analyst.Render(vars)
	assert.Contains(t, user, "ARTICLE")
	assert.NotContains(t, user, "ANALYSIS")

	_, user = Architect.Render(vars)
	assert.Contains(t, user, "ARTICLE")
	assert.Contains(t, user, "ANALYSIS")
	assert.NotContains(t, user, "BLUEPRINT")

	_, user = Writer.Render(vars)
	for _, want := range []string{"ARTICLE", "ANALYSIS", "BLUEPRINT"} {
		assert.Contains(t, user, want)
	}
	for _, s := range []Stage{Analyst, Architect, Writer} {
		sys, user := s.Render(vars)
		assert.False(t, strings.Contains(sys+user, "{"+"article_content}"), s.Name)
	}
}

func TestStageOutput_FullPrompt(t *testing.T) {
	out := StageOutput{System: "be terse", User: "rewrite this"}
	assert.Equal(t, "System Prompt:\nbe terse\n\nUser Prompt:\nrewrite this", out.FullPrompt())
}

func TestComposeArtifact(t *testing.T) {
	stages := []Stage{Analyst, Architect, Writer}
	outputs := []StageOutput{{Result: "diag"}, {Result: "plan"}, {Result: "final"}}

	want := "# Step 1: Diagnostic Report (Analyst)\n\ndiag" +
		"\n\n---\n\n" +
		"# Step 2: Refactor Blueprint (Architect)\n\nplan" +
		"\n\n---\n\n" +
		"# Step 3: Final Article\n\nfinal\n"
	assert.Equal(t, want, ComposeArtifact(outputs, stages))
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePersisting.Terminal())
	assert.False(t, StateStart.Terminal())
}
