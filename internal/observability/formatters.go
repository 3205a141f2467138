// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/lastminute/learning-agent/internal/engine"
	"github.com/lastminute/learning-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintTrace outputs one line per completed stage with its changed fields.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintTrace(trace []engine.TraceRecord) {
	for _, rec := range trace {
		changed := "(no changes)"
		if len(rec.ChangedFields) > 0 {
			changed = strings.Join(rec.ChangedFields, ", ")
		}
		fmt.Fprintf(p.out, "▶ %-26s %s\n", rec.Stage, changed)
	}
}

// PrintConcepts outputs the normalized and prioritized concept lists.
func (p *Printer) PrintConcepts(state types.State) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Extracted: %d  Normalized: %d  Priority: %d\n",
		len(state.Concepts), len(state.NormalizedConcepts), len(state.PriorityConcepts)))
	sb.WriteString("\n")

	if len(state.PriorityConcepts) > 0 {
		sb.WriteString("Priority Concepts:\n")
		count := min(len(state.PriorityConcepts), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", state.PriorityConcepts[i]))
		}
		if len(state.PriorityConcepts) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(state.PriorityConcepts)-maxItemsToShow))
		}
	}

	p.printBox("CONCEPTS", strings.TrimRight(sb.String(), "\n"))
}

// PrintLearningEvent outputs a human-readable summary of the generated event.
func (p *Printer) PrintLearningEvent(state types.State) {
	event := state.LearningEvent
	if event.Title == "" && event.Format == "" {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Title:   %s\n", event.Title))
	sb.WriteString(fmt.Sprintf("Format:  %s\n", event.Format))
	sb.WriteString("\n")

	if len(event.Tasks) > 0 {
		sb.WriteString("Checklist:\n")
		count := min(len(event.Tasks), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", event.Tasks[i]))
		}
		if len(event.Tasks) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(event.Tasks)-maxItemsToShow))
		}
	}

	p.printBox("LEARNING EVENT", strings.TrimRight(sb.String(), "\n"))
}

// PrintStoryBeats outputs the beat labels and how many image steps carry a
// rendered payload.
func (p *Printer) PrintStoryBeats(beats []types.Beat) {
	if len(beats) == 0 {
		return
	}

	var sb strings.Builder

	for i, beat := range beats {
		rendered := 0
		for _, step := range beat.ImageSteps {
			if step.ImageData != "" {
				rendered++
			}
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%d/%d images", i+1, beat.Label, rendered, len(beat.ImageSteps)))
		if beat.IsDecision {
			sb.WriteString(", decision")
		}
		sb.WriteString(")\n")
	}

	p.printBox("STORY BEATS", strings.TrimRight(sb.String(), "\n"))
}

// PrintRunSummary outputs the gateway status and top-level result shape.
func (p *Printer) PrintRunSummary(state types.State) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("LLM used:   %v\n", state.LLMUsed))
	sb.WriteString(fmt.Sprintf("LLM status: %s\n", state.LLMStatus))
	sb.WriteString(fmt.Sprintf("Chunks:     %d\n", len(state.Chunks)))
	sb.WriteString(fmt.Sprintf("Checklist:  %d items\n", len(state.TodoChecklist)))
	sb.WriteString(fmt.Sprintf("Beats:      %d", len(state.StoryBeats)))

	p.printBox("RUN SUMMARY", sb.String())
}
