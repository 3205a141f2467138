package engine

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastminute/learning-agent/internal/types"
)

func TestPreview_ShortValuesPassThrough(t *testing.T) {
	state := types.State{
		ExtractedText: "short text",
		Chunks:        []string{"one", "two"},
	}

	preview := Preview(state)

	assert.Equal(t, "short text", preview["extracted_text"])
	assert.Equal(t, []any{"one", "two"}, preview["chunks"])
}

func TestPreview_LongStringTruncated(t *testing.T) {
	long := strings.Repeat("a", 500)
	state := types.State{ExtractedText: long}

	preview := Preview(state)

	got, ok := preview["extracted_text"].(string)
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("%s... (500 chars)", strings.Repeat("a", 180)), got)
}

func TestPreview_MultiByteStringTruncatedOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 300)
	state := types.State{ExtractedText: long}

	preview := Preview(state)

	got, ok := preview["extracted_text"].(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, fmt.Sprintf("%s... (300 chars)", strings.Repeat("é", 180)), got)
}

func TestPreview_StringAtLimitNotTruncated(t *testing.T) {
	exact := strings.Repeat("b", 180)
	state := types.State{ExtractedText: exact}

	preview := Preview(state)

	assert.Equal(t, exact, preview["extracted_text"])
}

func TestPreview_LongListTruncated(t *testing.T) {
	chunks := make([]string, 10)
	for i := range chunks {
		chunks[i] = fmt.Sprintf("chunk-%d", i)
	}
	state := types.State{Chunks: chunks}

	preview := Preview(state)

	got, ok := preview["chunks"].([]any)
	require.True(t, ok)
	require.Len(t, got, 7)
	assert.Equal(t, "chunk-0", got[0])
	assert.Equal(t, "chunk-5", got[5])
	assert.Equal(t, "... (10 items total)", got[6])
}

func TestPreview_NestedRecordsTruncatedRecursively(t *testing.T) {
	state := types.State{
		ScenarioSeed: types.ScenarioSeed{
			Focus: strings.Repeat("x", 300),
		},
	}

	preview := Preview(state)

	seed, ok := preview["scenario_seed"].(map[string]any)
	require.True(t, ok)
	focus, ok := seed["focus"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(focus, "... (300 chars)"))
}

func TestPreview_CoversAllStateKeys(t *testing.T) {
	preview := Preview(types.State{})

	for _, key := range []string{
		"raw_files", "extracted_text", "cleaned_text", "chunks",
		"concepts", "normalized_concepts", "priority_concepts",
		"scenario_seed", "learning_event", "todo_checklist",
		"interactive_story", "final_storytelling", "story_beats",
		"llm_used", "llm_status",
	} {
		assert.Contains(t, preview, key)
	}
}
