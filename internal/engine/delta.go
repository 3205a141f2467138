package engine

import "github.com/lastminute/learning-agent/internal/types"

// Delta is a partial state update produced by one stage. Nil fields leave the
// corresponding state field untouched; non-nil fields overwrite it. Field
// names mirror types.State.
type Delta struct {
	RawFiles           *[]string
	ExtractedText      *string
	CleanedText        *string
	Chunks             *[]string
	Concepts           *[]string
	NormalizedConcepts *[]string
	PriorityConcepts   *[]string
	ScenarioSeed       *types.ScenarioSeed
	LearningEvent      *types.LearningEvent
	TodoChecklist      *[]string
	InteractiveStory   *types.InteractiveStory
	FinalStorytelling  *string
	StoryBeats         *[]types.Beat
	LLMUsed            *bool
	LLMStatus          *string
}

// deltaField pairs a state key with its merge and presence checks, so apply
// and changed stay in one place and cannot drift apart.
type deltaField struct {
	key   string
	isSet func(*Delta) bool
	merge func(*Delta, *types.State)
}

var deltaFields = []deltaField{
	{"raw_files",
		func(d *Delta) bool { return d.RawFiles != nil },
		func(d *Delta, s *types.State) { s.RawFiles = *d.RawFiles }},
	{"extracted_text",
		func(d *Delta) bool { return d.ExtractedText != nil },
		func(d *Delta, s *types.State) { s.ExtractedText = *d.ExtractedText }},
	{"cleaned_text",
		func(d *Delta) bool { return d.CleanedText != nil },
		func(d *Delta, s *types.State) { s.CleanedText = *d.CleanedText }},
	{"chunks",
		func(d *Delta) bool { return d.Chunks != nil },
		func(d *Delta, s *types.State) { s.Chunks = *d.Chunks }},
	{"concepts",
		func(d *Delta) bool { return d.Concepts != nil },
		func(d *Delta, s *types.State) { s.Concepts = *d.Concepts }},
	{"normalized_concepts",
		func(d *Delta) bool { return d.NormalizedConcepts != nil },
		func(d *Delta, s *types.State) { s.NormalizedConcepts = *d.NormalizedConcepts }},
	{"priority_concepts",
		func(d *Delta) bool { return d.PriorityConcepts != nil },
		func(d *Delta, s *types.State) { s.PriorityConcepts = *d.PriorityConcepts }},
	{"scenario_seed",
		func(d *Delta) bool { return d.ScenarioSeed != nil },
		func(d *Delta, s *types.State) { s.ScenarioSeed = *d.ScenarioSeed }},
	{"learning_event",
		func(d *Delta) bool { return d.LearningEvent != nil },
		func(d *Delta, s *types.State) { s.LearningEvent = *d.LearningEvent }},
	{"todo_checklist",
		func(d *Delta) bool { return d.TodoChecklist != nil },
		func(d *Delta, s *types.State) { s.TodoChecklist = *d.TodoChecklist }},
	{"interactive_story",
		func(d *Delta) bool { return d.InteractiveStory != nil },
		func(d *Delta, s *types.State) { s.InteractiveStory = *d.InteractiveStory }},
	{"final_storytelling",
		func(d *Delta) bool { return d.FinalStorytelling != nil },
		func(d *Delta, s *types.State) { s.FinalStorytelling = *d.FinalStorytelling }},
	{"story_beats",
		func(d *Delta) bool { return d.StoryBeats != nil },
		func(d *Delta, s *types.State) { s.StoryBeats = *d.StoryBeats }},
	{"llm_used",
		func(d *Delta) bool { return d.LLMUsed != nil },
		func(d *Delta, s *types.State) { s.LLMUsed = *d.LLMUsed }},
	{"llm_status",
		func(d *Delta) bool { return d.LLMStatus != nil },
		func(d *Delta, s *types.State) { s.LLMStatus = *d.LLMStatus }},
}

// apply merges every set field of the delta into the state.
func (d *Delta) apply(s *types.State) {
	for _, f := range deltaFields {
		if f.isSet(d) {
			f.merge(d, s)
		}
	}
}

// changed returns the state keys this delta sets, in declaration order.
func (d *Delta) changed() []string {
	keys := make([]string, 0, len(deltaFields))
	for _, f := range deltaFields {
		if f.isSet(d) {
			keys = append(keys, f.key)
		}
	}
	return keys
}

// Helpers for building deltas without intermediate variables.

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// Strs returns a pointer to the slice v.
func Strs(v []string) *[]string { return &v }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
