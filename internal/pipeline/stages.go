package pipeline

import (
	"context"
	"strings"

	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/fetch"
	"github.com/lastminute/learning-agent/internal/imagegen"
	"github.com/lastminute/learning-agent/internal/ingestion"
	"github.com/lastminute/learning-agent/internal/llm"
	"github.com/lastminute/learning-agent/internal/prompts"
	"github.com/lastminute/learning-agent/internal/types"
)

const (
	// storedPrefix tags raw input identifiers once they are registered.
	storedPrefix = "stored::"

	// Prompt context budgets, in characters.
	maxConceptInput = 12000
	maxStoryInput   = 12000
	maxSlideInput   = 8000
	maxStoryRef     = 4000

	// maxBeats caps the number of beats kept from a decomposition response.
	maxBeats = 6
)

// stageSet holds the collaborators shared by the stage functions.
type stageSet struct {
	gateway llm.Gateway
	images  *imagegen.Scheduler
}

// Stages builds the fixed, ordered stage list of the learning pipeline over
// the given collaborators.
func Stages(gateway llm.Gateway, images *imagegen.Scheduler) []engine.Stage {
	s := &stageSet{gateway: gateway, images: images}
	return []engine.Stage{
		{Name: "store_raw_files", Run: s.storeRawFiles},
		{Name: "extract_text", Run: s.extractText},
		{Name: "clean_text", Run: s.cleanText},
		{Name: "chunk_text", Run: s.chunkText},
		{Name: "concept_extraction", Run: s.conceptExtraction},
		{Name: "normalize_concepts", Run: s.normalizeConcepts},
		{Name: "estimate_priority", Run: s.estimatePriority},
		{Name: "select_scenario_seed", Run: s.selectScenarioSeed},
		{Name: "generate_learning_event", Run: s.generateLearningEvent},
		{Name: "generate_story_visuals", Run: s.generateStoryVisuals},
	}
}

// storeRawFiles tags every raw input identifier as stored.
func (s *stageSet) storeRawFiles(ctx context.Context, state types.State) engine.Delta {
	stored := make([]string, len(state.RawFiles))
	for i, name := range state.RawFiles {
		stored[i] = storedPrefix + name
	}
	return engine.Delta{RawFiles: engine.Strs(stored)}
}

// extractText keeps caller-provided text when present; otherwise it reads
// each stored source, fetching URLs and reading files from disk, and
// substitutes a placeholder line for any source that cannot be read.
func (s *stageSet) extractText(ctx context.Context, state types.State) engine.Delta {
	if existing := strings.TrimSpace(state.ExtractedText); existing != "" {
		return engine.Delta{ExtractedText: engine.Str(existing)}
	}

	var parts []string
	for _, name := range state.RawFiles {
		source := strings.TrimPrefix(name, storedPrefix)
		text, err := extractSource(ctx, source)
		if err != nil || strings.TrimSpace(text) == "" {
			parts = append(parts, "dummy extracted text from "+name)
			continue
		}
		parts = append(parts, text)
	}

	combined := strings.Join(parts, "\n")
	if combined == "" {
		combined = "dummy extracted text."
	}
	return engine.Delta{ExtractedText: engine.Str(combined)}
}

// extractSource pulls raw text from one study source, over HTTP for URLs
// and from disk for anything else.
func extractSource(ctx context.Context, source string) (string, error) {
	if fetch.IsURL(source) {
		result, err := fetch.URL(ctx, source, nil)
		if err != nil {
			return "", err
		}
		return result.Text, nil
	}
	return ingestion.ExtractFile(source)
}

// cleanText normalizes the extracted text.
func (s *stageSet) cleanText(ctx context.Context, state types.State) engine.Delta {
	return engine.Delta{CleanedText: engine.Str(ingestion.CleanText(state.ExtractedText))}
}

// chunkText splits the cleaned text into bounded chunks.
func (s *stageSet) chunkText(ctx context.Context, state types.State) engine.Delta {
	chunks := ingestion.ChunkText(state.CleanedText)
	if chunks == nil {
		chunks = []string{}
	}
	return engine.Delta{Chunks: engine.Strs(chunks)}
}

// conceptExtraction asks the gateway for study concepts and falls back to a
// frequency heuristic over the cleaned text.
func (s *stageSet) conceptExtraction(ctx context.Context, state types.State) engine.Delta {
	text := state.CleanedText

	result, status := s.gateway.GenerateJSON(ctx,
		prompts.MustGet("pipeline.json", "extract-concepts-system"),
		prompts.Format(prompts.MustGet("pipeline.json", "extract-concepts-user"), map[string]string{
			"Text": truncateRunes(text, maxConceptInput),
		}))

	if raw := llm.StringListField(result, "concepts"); len(raw) > 0 {
		concepts := make([]string, len(raw))
		for i, c := range raw {
			concepts[i] = strings.ToLower(c)
		}
		return engine.Delta{
			Concepts:  engine.Strs(concepts),
			LLMUsed:   engine.Bool(true),
			LLMStatus: engine.Str(llm.StatusOK),
		}
	}

	concepts := heuristicConcepts(text)
	if len(concepts) == 0 {
		concepts = []string{"core-topic", "key-idea", "review-focus"}
	}
	return engine.Delta{
		Concepts:  engine.Strs(concepts),
		LLMStatus: engine.Str(status),
	}
}

// normalizeConcepts lowercases, trims, and deduplicates concepts while
// preserving first-seen order. The operation is idempotent.
func (s *stageSet) normalizeConcepts(ctx context.Context, state types.State) engine.Delta {
	seen := make(map[string]bool, len(state.Concepts))
	normalized := make([]string, 0, len(state.Concepts))
	for _, concept := range state.Concepts {
		value := strings.ToLower(strings.TrimSpace(concept))
		if value != "" && !seen[value] {
			seen[value] = true
			normalized = append(normalized, value)
		}
	}
	return engine.Delta{NormalizedConcepts: engine.Strs(normalized)}
}

// estimatePriority keeps the first five normalized concepts, in order.
func (s *stageSet) estimatePriority(ctx context.Context, state types.State) engine.Delta {
	priority := state.NormalizedConcepts
	if len(priority) > 5 {
		priority = priority[:5]
	}
	out := make([]string, len(priority))
	copy(out, priority)
	return engine.Delta{PriorityConcepts: engine.Strs(out)}
}

// selectScenarioSeed picks the focus and secondary concepts for the story.
func (s *stageSet) selectScenarioSeed(ctx context.Context, state types.State) engine.Delta {
	seed := types.ScenarioSeed{
		Focus:     "general review",
		Secondary: []string{},
		Mode:      "deterministic-placeholder",
	}
	if len(state.PriorityConcepts) > 0 {
		seed.Focus = state.PriorityConcepts[0]
		seed.Secondary = append([]string{}, state.PriorityConcepts[1:]...)
	}
	return engine.Delta{ScenarioSeed: &seed}
}

// truncateRunes bounds s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
