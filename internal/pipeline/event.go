package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/llm"
	"github.com/lastminute/learning-agent/internal/prompts"
	"github.com/lastminute/learning-agent/internal/schemas"
	"github.com/lastminute/learning-agent/internal/types"
)

// generateLearningEvent turns the scenario seed and source text into an
// interactive story with a checklist, via the gateway when available and a
// deterministic template otherwise.
func (s *stageSet) generateLearningEvent(ctx context.Context, state types.State) engine.Delta {
	focus := state.ScenarioSeed.Focus
	if focus == "" {
		focus = "general review"
	}
	secondary := state.ScenarioSeed.Secondary
	concepts := state.PriorityConcepts

	result, status := s.gateway.GenerateJSON(ctx,
		prompts.MustGet("pipeline.json", "learning-event-system"),
		prompts.Format(prompts.MustGet("pipeline.json", "learning-event-user"), map[string]string{
			"Concepts":   strings.Join(concepts, ", "),
			"SourceText": truncateRunes(state.CleanedText, maxStoryInput),
		}))

	if len(result) > 0 {
		if schemas.ValidateObject(schemas.LearningEvent, result) == nil {
			return s.remoteLearningEvent(result, focus, concepts)
		}
		status = "invalid-response"
	}

	return s.fallbackLearningEvent(state, focus, secondary, concepts, status)
}

// remoteLearningEvent shapes a validated gateway response, substituting a
// templated checklist when the returned one is empty after filtering.
func (s *stageSet) remoteLearningEvent(result map[string]any, focus string, concepts []string) engine.Delta {
	title := llm.StringField(result, "title")
	if title == "" {
		title = "LastMinute Mission: " + focus
	}
	storytelling := llm.StringField(result, "storytelling")

	checklist := llm.StringListField(result, "checklist")
	if len(checklist) == 0 {
		checklist = []string{
			fmt.Sprintf("Read and annotate the section around '%s'.", focus),
			"Write three flashcards from the material.",
			"Solve one timed practice question.",
			"Summarize the topic from memory.",
		}
	}

	story := types.InteractiveStory{
		Title:      title,
		Opening:    llm.StringField(result, "opening"),
		Checkpoint: llm.StringField(result, "checkpoint"),
		BossLevel:  llm.StringField(result, "boss_level"),
	}

	storyText := storytelling
	if storyText == "" {
		storyText = fmt.Sprintf(
			"%s\n\nAct 1 - The Briefing:\n%s\n\nAct 2 - The Checkpoint:\n%s\n\nFinal Boss:\n%s\n\nMission Checklist:\n- %s",
			title, story.Opening, story.Checkpoint, story.BossLevel,
			strings.Join(checklist, "\n- "))
	}

	event := types.LearningEvent{
		Title:             strings.ToLower(title),
		Format:            "interactive-story",
		Tasks:             checklist,
		Concepts:          concepts,
		InteractiveStory:  story,
		FinalStorytelling: storyText,
	}

	return engine.Delta{
		LearningEvent:     &event,
		TodoChecklist:     engine.Strs(checklist),
		InteractiveStory:  &story,
		FinalStorytelling: engine.Str(storyText),
		LLMUsed:           engine.Bool(true),
		LLMStatus:         engine.Str(llm.StatusOK),
	}
}

// fallbackLearningEvent synthesizes a templated story from the priority
// concepts: a fixed-shape checklist (4 items, plus one linking the focus to
// a secondary concept when one exists) and a three-act mission narrative.
func (s *stageSet) fallbackLearningEvent(state types.State, focus string, secondary, concepts []string, status string) engine.Delta {
	checklist := []string{
		fmt.Sprintf("Read and annotate the section around '%s'.", focus),
		fmt.Sprintf("Create 3 flashcards for '%s' and key terms.", focus),
		"Answer 5 quick self-test questions from the uploaded material.",
		"Write a 4-line summary from memory.",
	}
	if len(secondary) > 0 {
		checklist = append(checklist, fmt.Sprintf("Link '%s' with '%s' in one example.", focus, secondary[0]))
	}

	story := types.InteractiveStory{
		Title:      "LastMinute Mission: " + focus,
		Opening:    fmt.Sprintf("You are 24 hours from the exam. Your mission starts with %s.", focus),
		Checkpoint: "Unlock the next checkpoint by solving one practice prompt.",
		BossLevel:  "Teach the concept back in plain language without notes.",
	}

	conceptsText := "core ideas"
	if len(concepts) > 0 {
		conceptsText = strings.Join(concepts, ", ")
	}
	storyText := fmt.Sprintf(
		"%s\n\nAct 1 - The Briefing:\n%s\n\nAct 2 - The Route:\nYour guide marks these concepts as critical: %s.\nEvery checkpoint you clear gives you more control of the final exam map.\n\nAct 3 - The Checkpoint:\n%s\n\nFinal Boss:\n%s\n\nMission Checklist:\n- %s",
		story.Title, story.Opening, conceptsText, story.Checkpoint, story.BossLevel,
		strings.Join(checklist, "\n- "))

	event := types.LearningEvent{
		Title:             "mission: " + focus,
		Format:            "guided practice",
		Tasks:             checklist,
		Concepts:          concepts,
		InteractiveStory:  story,
		FinalStorytelling: storyText,
	}

	if status == "" {
		status = state.LLMStatus
	}
	if status == "" {
		status = "fallback"
	}

	return engine.Delta{
		LearningEvent:     &event,
		TodoChecklist:     engine.Strs(checklist),
		InteractiveStory:  &story,
		FinalStorytelling: engine.Str(storyText),
		LLMStatus:         engine.Str(status),
	}
}
