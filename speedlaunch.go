// Package speedlaunch parses the AI Speed-Launch guide: a three-step
// challenge plus per-workflow reference content, written as markdown with a
// small set of structural conventions.
//
// The parsed Guide is the content side of the system. It supplies display
// text, prompt templates and default-open flags for the opaque ids tracked by
// the interaction state store, which never looks at content itself.
package speedlaunch

import (
	"html/template"

	"github.com/livetemplate/speedlaunch/internal/state"
)

// Guide is a parsed guide document.
type Guide struct {
	Title      string
	SourceFile string // path of the source .md file, or "embedded:<name>"
	Persist    string // storage backend requested by frontmatter, empty to use config
	Intro      template.HTML
	Steps      []*Step
	Workflows  []*WorkflowContent
	Appendix   *Appendix     // shown below either mode, nil when absent
	Footer     template.HTML // closing note, empty when absent

	checkboxes map[string]*ChecklistItem
	prompts    map[string]*Prompt
	sections   map[string]bool // collapsible id -> default open
	itemSteps  map[string]int  // checkbox id -> step number, 0 outside steps
}

// Step is one stage of the challenge.
type Step struct {
	Number    int
	ID        string
	Title     string
	DoneLabel string // label of the completion button
	Blocks    []*Block
}

// WorkflowContent is the Reference-mode content for one workflow.
type WorkflowContent struct {
	Key    state.Workflow
	Title  string
	Time   string // optional duration hint, e.g. "30-60 min"
	Blocks []*Block
}

// Appendix is mode-independent content rendered after the active view,
// typically the full prompt library.
type Appendix struct {
	ID     string
	Title  string
	Blocks []*Block
}

// BlockKind identifies the content held by a Block.
type BlockKind int

const (
	BlockProse BlockKind = iota
	BlockChecklist
	BlockPrompt
	BlockRules
	BlockFAQ
	BlockSection
)

func (k BlockKind) String() string {
	switch k {
	case BlockProse:
		return "prose"
	case BlockChecklist:
		return "checklist"
	case BlockPrompt:
		return "prompt"
	case BlockRules:
		return "rules"
	case BlockFAQ:
		return "faq"
	case BlockSection:
		return "section"
	default:
		return "unknown"
	}
}

// Block is one renderable piece of a step or workflow. Exactly one of the
// content fields is set, according to Kind.
type Block struct {
	Kind    BlockKind
	HTML    template.HTML
	Items   []*ChecklistItem
	Prompt  *Prompt
	Rules   *RulesTable
	FAQ     *FAQ
	Section *Section
}

// ChecklistItem is a checkbox whose state is tracked under ID.
type ChecklistItem struct {
	ID    string
	Label string
	Time  string
	Line  int
}

// Prompt is a copyable prompt template.
type Prompt struct {
	ID       string
	Label    string
	Text     string
	Workflow string // optional workflow tag
	Line     int
}

// RulesTable is a GFM table of rules.
type RulesTable struct {
	Header []string
	Rows   [][]string
}

// FAQ is a collapsible question with its answer.
type FAQ struct {
	ID          string
	Question    string
	Answer      template.HTML
	DefaultOpen bool
}

// Section is a collapsible group of blocks.
type Section struct {
	ID          string
	Title       string
	DefaultOpen bool
	Blocks      []*Block
}

// StepProgress counts checked checklist items within a step.
type StepProgress struct {
	Step  int
	Title string
	Done  int
	Total int
}

// Prompt looks up a prompt by id.
func (g *Guide) Prompt(id string) (*Prompt, bool) {
	p, ok := g.prompts[id]
	return p, ok
}

// Checkbox looks up a checklist item by id.
func (g *Guide) Checkbox(id string) (*ChecklistItem, bool) {
	item, ok := g.checkboxes[id]
	return item, ok
}

// HasSection reports whether id names a collapsible section or FAQ.
func (g *Guide) HasSection(id string) bool {
	_, ok := g.sections[id]
	return ok
}

// SectionDefault returns the default-open flag for a collapsible id. Unknown
// ids are closed.
func (g *Guide) SectionDefault(id string) bool {
	return g.sections[id]
}

// Step returns step n, or nil.
func (g *Guide) Step(n int) *Step {
	for _, s := range g.Steps {
		if s.Number == n {
			return s
		}
	}
	return nil
}

// Workflow returns the reference content for w, or nil when the guide has none.
func (g *Guide) Workflow(w state.Workflow) *WorkflowContent {
	for _, wf := range g.Workflows {
		if wf.Key == w {
			return wf
		}
	}
	return nil
}

// Progress counts checked items per step, in step order.
func (g *Guide) Progress(checked map[string]bool) []StepProgress {
	out := make([]StepProgress, 0, len(g.Steps))
	for _, s := range g.Steps {
		p := StepProgress{Step: s.Number, Title: s.Title}
		for id, step := range g.itemSteps {
			if step != s.Number {
				continue
			}
			p.Total++
			if checked[id] {
				p.Done++
			}
		}
		out = append(out, p)
	}
	return out
}

// Complete reports whether every item in the step is checked. Steps without
// checklist items are never complete by this measure.
func (p StepProgress) Complete() bool {
	return p.Total > 0 && p.Done == p.Total
}
