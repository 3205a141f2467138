// Package types provides type definitions for structured data used throughout the learning-agent system.
package types

// StepsPerBeat is the fixed number of image steps every beat carries.
// The decomposition stage truncates or pads to this count.
const StepsPerBeat = 3

// State is the shared record threaded through the pipeline. Stages only add
// or refine fields; a field set by one stage is never cleared by a later one.
type State struct {
	RawFiles           []string         `json:"raw_files"`
	ExtractedText      string           `json:"extracted_text"`
	CleanedText        string           `json:"cleaned_text"`
	Chunks             []string         `json:"chunks"`
	Concepts           []string         `json:"concepts"`
	NormalizedConcepts []string         `json:"normalized_concepts"`
	PriorityConcepts   []string         `json:"priority_concepts"`
	ScenarioSeed       ScenarioSeed     `json:"scenario_seed"`
	LearningEvent      LearningEvent    `json:"learning_event"`
	TodoChecklist      []string         `json:"todo_checklist"`
	InteractiveStory   InteractiveStory `json:"interactive_story"`
	FinalStorytelling  string           `json:"final_storytelling"`
	StoryBeats         []Beat           `json:"story_beats"`
	LLMUsed            bool             `json:"llm_used"`
	LLMStatus          string           `json:"llm_status"`
}

// ScenarioSeed selects the focus of the generated learning event.
type ScenarioSeed struct {
	Focus     string   `json:"focus"`
	Secondary []string `json:"secondary"`
	Mode      string   `json:"mode"`
}

// InteractiveStory holds the narrative skeleton of a learning event.
type InteractiveStory struct {
	Title      string `json:"title"`
	Opening    string `json:"opening"`
	Checkpoint string `json:"checkpoint"`
	BossLevel  string `json:"boss_level"`
}

// LearningEvent is the assembled study artifact returned to the caller.
type LearningEvent struct {
	Title             string           `json:"title"`
	Format            string           `json:"format"`
	Tasks             []string         `json:"tasks"`
	Concepts          []string         `json:"concepts"`
	InteractiveStory  InteractiveStory `json:"interactive_story"`
	FinalStorytelling string           `json:"final_storytelling"`
}

// Beat is one narrative segment of the story, paired with exactly
// StepsPerBeat illustrative image steps.
type Beat struct {
	Label      string      `json:"label"`
	Narrative  string      `json:"narrative"`
	IsDecision bool        `json:"is_decision"`
	Choices    []string    `json:"choices"`
	ImageSteps []ImageStep `json:"image_steps"`
}

// ImageStep is one generation request/result pair within a beat. ImageData is
// empty until the scheduler fills it, and stays empty on permanent failure.
type ImageStep struct {
	StepLabel string `json:"step_label"`
	Prompt    string `json:"prompt"`
	ImageData string `json:"image_data"`
}
