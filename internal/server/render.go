package server

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/livetemplate/speedlaunch"
	"github.com/livetemplate/speedlaunch/internal/assets"
	"github.com/livetemplate/speedlaunch/internal/state"
)

// pageData is the root value handed to the page templates.
type pageData struct {
	Guide     *speedlaunch.Guide
	State     state.Snapshot
	Progress  []speedlaunch.StepProgress
	Workflows []workflowTab
	Selected  *speedlaunch.WorkflowContent
}

type workflowTab struct {
	Key      state.Workflow
	Title    string
	Time     string
	Selected bool
}

// blockCtx lets the recursive "blocks" template reach the snapshot.
type blockCtx struct {
	Root   *pageData
	Blocks []*speedlaunch.Block
}

// Renderer turns a guide and a snapshot into HTML.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded page templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("speedlaunch").Funcs(template.FuncMap{
		"blocks": func(root *pageData, blocks []*speedlaunch.Block) blockCtx {
			return blockCtx{Root: root, Blocks: blocks}
		},
	}).ParseFS(assets.TemplateFS(), "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Page renders the full HTML document.
func (r *Renderer) Page(g *speedlaunch.Guide, snap state.Snapshot) ([]byte, error) {
	return r.execute("page", g, snap)
}

// App renders only the body that the client swaps into #app.
func (r *Renderer) App(g *speedlaunch.Guide, snap state.Snapshot) ([]byte, error) {
	return r.execute("app", g, snap)
}

func (r *Renderer) execute(name string, g *speedlaunch.Guide, snap state.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, newPageData(g, snap)); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func newPageData(g *speedlaunch.Guide, snap state.Snapshot) *pageData {
	data := &pageData{
		Guide:    g,
		State:    snap,
		Progress: g.Progress(snap.CheckboxStates),
		Selected: g.Workflow(snap.SelectedWorkflow),
	}
	for _, w := range g.Workflows {
		data.Workflows = append(data.Workflows, workflowTab{
			Key:      w.Key,
			Title:    w.Title,
			Time:     w.Time,
			Selected: w.Key == snap.SelectedWorkflow,
		})
	}
	return data
}
