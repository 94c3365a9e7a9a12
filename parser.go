package speedlaunch

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/livetemplate/speedlaunch/internal/config"
	"github.com/livetemplate/speedlaunch/internal/state"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header of a guide file.
type Frontmatter struct {
	Title   string `yaml:"title"`
	Persist string `yaml:"persist"` // memory, file, sqlite, none
	Steps   int    `yaml:"steps"`
}

var (
	stepHeading     = regexp.MustCompile(`^Step\s+(\d+)\s*:\s*(.+)$`)
	workflowHeading = regexp.MustCompile(`^Workflow\s*:\s*(.+)$`)
	sectionHeading  = regexp.MustCompile(`^Section\s*:\s*(.+)$`)
	faqHeading      = regexp.MustCompile(`^FAQ\s*:\s*(.+)$`)
	appendixHeading = regexp.MustCompile(`^Appendix\s*:\s*(.+)$`)
	footerHeading   = regexp.MustCompile(`^Footer$`)
)

// ParseFile parses a guide from disk.
func ParseFile(path string) (*Guide, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guide: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	return Parse(absPath, content)
}

// Parse parses guide content. name is used in error messages.
func Parse(name string, content []byte) (*Guide, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	fm, body, err := extractFrontmatter(content)
	if err != nil {
		return nil, NewParseError(name, 1, err.Error()).
			WithHint("Frontmatter is YAML between two '---' lines at the top of the file").
			withSource(content)
	}

	p := &guideParser{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		file:       name,
		src:        content,
		body:       body,
		lineOffset: bytes.Count(content[:len(content)-len(body)], []byte("\n")),
		seen:       make(map[string]int),
		guide: &Guide{
			Title:      fm.Title,
			SourceFile: name,
			Persist:    fm.Persist,
			checkboxes: make(map[string]*ChecklistItem),
			prompts:    make(map[string]*Prompt),
			sections:   make(map[string]bool),
			itemSteps:  make(map[string]int),
		},
	}

	if fm.Persist != "" {
		sc := config.StorageConfig{Backend: fm.Persist}
		if err := sc.Validate(); err != nil {
			return nil, p.errorf(2, "invalid persist value %q", fm.Persist).
				WithHint("Use one of: memory, file, sqlite, none")
		}
	}

	if err := p.parse(); err != nil {
		return nil, err
	}

	if len(p.guide.Steps) != state.LastStep {
		return nil, p.errorf(0, "guide has %d steps, need exactly %d", len(p.guide.Steps), state.LastStep).
			WithHint("Add '## Step N: Title' headings for steps 1 to 3")
	}
	if fm.Steps != 0 && fm.Steps != state.LastStep {
		return nil, p.errorf(2, "frontmatter declares %d steps, need exactly %d", fm.Steps, state.LastStep)
	}
	return p.guide, nil
}

// extractFrontmatter splits YAML frontmatter from the markdown body.
func extractFrontmatter(content []byte) (*Frontmatter, []byte, error) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return &Frontmatter{}, content, nil
	}

	endIdx := bytes.Index(content[4:], []byte("\n---\n"))
	if endIdx == -1 {
		return nil, nil, fmt.Errorf("unclosed frontmatter")
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(content[4:4+endIdx], &fm); err != nil {
		return nil, nil, fmt.Errorf("failed to parse frontmatter YAML: %w", err)
	}
	return &fm, content[4+endIdx+5:], nil
}

type guideParser struct {
	md         goldmark.Markdown
	file       string
	src        []byte
	body       []byte
	lineOffset int
	guide      *Guide
	seen       map[string]int // namespace:id -> line of first definition

	intro   bytes.Buffer
	blocks  *[]*Block // blocks of the open step or workflow, nil in the intro
	step    int       // open step number, 0 otherwise
	section *Section
	faq     *FAQ
	answer  bytes.Buffer

	inFooter bool
	footer   bytes.Buffer
	footerAt int // line of the footer heading, 0 when none
}

func (p *guideParser) errorf(line int, format string, args ...any) *ParseError {
	return NewParseError(p.file, line, fmt.Sprintf(format, args...)).withSource(p.src)
}

func (p *guideParser) parse() error {
	doc := p.md.Parser().Parse(text.NewReader(p.body))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if err := p.node(n); err != nil {
			return err
		}
	}
	p.closeFAQ()
	p.section = nil
	p.guide.Intro = template.HTML(p.intro.String())
	p.guide.Footer = template.HTML(strings.TrimSpace(p.footer.String()))
	return nil
}

func (p *guideParser) node(n ast.Node) error {
	if h, ok := n.(*ast.Heading); ok {
		return p.heading(h)
	}

	if p.inFooter {
		return p.md.Renderer().Render(&p.footer, p.body, n)
	}
	if p.faq != nil {
		return p.md.Renderer().Render(&p.answer, p.body, n)
	}
	if p.blocks == nil {
		return p.md.Renderer().Render(&p.intro, p.body, n)
	}

	switch v := n.(type) {
	case *ast.List:
		if isTaskList(v) {
			return p.checklist(v)
		}
	case *ast.FencedCodeBlock:
		if string(v.Language(p.body)) == "prompt" {
			return p.prompt(v)
		}
	case *extast.Table:
		p.add(&Block{Kind: BlockRules, Rules: p.rules(v)})
		return nil
	}
	return p.prose(n)
}

func (p *guideParser) heading(h *ast.Heading) error {
	raw := inlineText(h, p.body)
	title, a := splitAttrs(raw)
	line := p.lineOf(h)

	switch h.Level {
	case 1:
		p.closeFAQ()
		if p.guide.Title == "" && p.blocks == nil && !p.inFooter {
			p.guide.Title = title
			return nil
		}
	case 2:
		p.closeFAQ()
		p.section = nil
		p.inFooter = false
		if m := stepHeading.FindStringSubmatch(title); m != nil {
			return p.openStep(m[1], m[2], a, line)
		}
		if m := workflowHeading.FindStringSubmatch(title); m != nil {
			return p.openWorkflow(m[1], a, line)
		}
		if m := appendixHeading.FindStringSubmatch(title); m != nil {
			return p.openAppendix(m[1], a, line)
		}
		if footerHeading.MatchString(title) {
			return p.openFooter(line)
		}
	case 3:
		p.closeFAQ()
		p.section = nil
		if m := sectionHeading.FindStringSubmatch(title); m != nil {
			return p.openSection(m[1], a, line)
		}
	case 4:
		p.closeFAQ()
		if m := faqHeading.FindStringSubmatch(title); m != nil {
			return p.openFAQ(m[1], a, line)
		}
	}

	heading := template.HTML(fmt.Sprintf("<h%d>%s</h%d>\n", h.Level, template.HTMLEscapeString(title), h.Level))
	if p.inFooter {
		p.footer.WriteString(string(heading))
		return nil
	}
	if p.faq != nil {
		p.answer.WriteString(string(heading))
		return nil
	}
	if p.blocks == nil {
		p.intro.WriteString(string(heading))
		return nil
	}
	p.appendProse(heading)
	return nil
}

func (p *guideParser) openStep(num, title string, a attrs, line int) error {
	want := len(p.guide.Steps) + 1
	if num != fmt.Sprint(want) {
		return p.errorf(line, "step %s is out of order, expected step %d", num, want).
			WithHint("Number steps 1, 2, 3 in document order")
	}
	if want > state.LastStep {
		return p.errorf(line, "too many steps, the challenge has exactly %d", state.LastStep)
	}
	if len(p.guide.Workflows) > 0 {
		return p.errorf(line, "step %d appears after a workflow section", want).
			WithHint("Put all steps before the '## Workflow:' sections")
	}
	if p.guide.Appendix != nil {
		return p.errorf(line, "step %d appears after the appendix", want).
			WithHint("Put all steps before the '## Appendix:' section")
	}

	id := a.ID
	if id == "" {
		id = fmt.Sprintf("step-%d", want)
	}
	label := a.Get("done")
	if label == "" {
		label = "Mark step complete"
	}

	s := &Step{Number: want, ID: id, Title: strings.TrimSpace(title), DoneLabel: label}
	p.guide.Steps = append(p.guide.Steps, s)
	p.blocks = &s.Blocks
	p.step = want
	return nil
}

func (p *guideParser) openWorkflow(title string, a attrs, line int) error {
	key := a.ID
	if key == "" {
		key = slugify(title)
	}
	w, err := state.ParseWorkflow(key)
	if err != nil {
		return p.errorf(line, "unknown workflow %q", key).
			WithHint(fmt.Sprintf("Use one of: %s, %s, %s", state.WorkflowGlowUp, state.WorkflowTrend, state.WorkflowNichePack))
	}
	if err := p.claim("workflow", string(w), line); err != nil {
		return err
	}

	wf := &WorkflowContent{Key: w, Title: strings.TrimSpace(title), Time: a.Get("time")}
	p.guide.Workflows = append(p.guide.Workflows, wf)
	p.blocks = &wf.Blocks
	p.step = 0
	return nil
}

func (p *guideParser) openAppendix(title string, a attrs, line int) error {
	if p.guide.Appendix != nil {
		return p.errorf(line, "guide has more than one appendix").
			WithHint("Merge the content into a single '## Appendix:' section")
	}
	id, err := p.idFor(a.ID, title, line)
	if err != nil {
		return err
	}

	ap := &Appendix{ID: id, Title: strings.TrimSpace(title)}
	p.guide.Appendix = ap
	p.blocks = &ap.Blocks
	p.step = 0
	return nil
}

func (p *guideParser) openFooter(line int) error {
	if p.footerAt != 0 {
		return p.errorf(line, "guide has more than one footer").
			WithRelated(fmt.Sprintf("First defined at line %d", p.footerAt))
	}
	p.footerAt = line
	p.inFooter = true
	p.blocks = nil
	p.step = 0
	return nil
}

func (p *guideParser) openSection(title string, a attrs, line int) error {
	if p.blocks == nil {
		return p.errorf(line, "section %q is outside any step or workflow", title)
	}
	id, err := p.idFor(a.ID, title, line)
	if err != nil {
		return err
	}
	if err := p.claim("section", id, line); err != nil {
		return err
	}

	sec := &Section{ID: id, Title: strings.TrimSpace(title), DefaultOpen: a.Has("open")}
	p.guide.sections[id] = sec.DefaultOpen
	p.add(&Block{Kind: BlockSection, Section: sec})
	p.section = sec
	return nil
}

func (p *guideParser) openFAQ(question string, a attrs, line int) error {
	if p.blocks == nil {
		return p.errorf(line, "FAQ %q is outside any step or workflow", question)
	}
	id, err := p.idFor(a.ID, question, line)
	if err != nil {
		return err
	}
	if err := p.claim("section", id, line); err != nil {
		return err
	}

	faq := &FAQ{ID: id, Question: strings.TrimSpace(question), DefaultOpen: a.Has("open")}
	p.guide.sections[id] = faq.DefaultOpen
	p.add(&Block{Kind: BlockFAQ, FAQ: faq})
	p.faq = faq
	p.answer.Reset()
	return nil
}

func (p *guideParser) closeFAQ() {
	if p.faq == nil {
		return
	}
	p.faq.Answer = template.HTML(strings.TrimSpace(p.answer.String()))
	p.faq = nil
	p.answer.Reset()
}

func (p *guideParser) checklist(list *ast.List) error {
	var items []*ChecklistItem
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		line := p.lineOf(li)
		if taskBox(li) == nil {
			return p.errorf(line, "checklist mixes task items with plain items").
				WithHint("Start every item with '- [ ]'")
		}

		label, a := splitAttrs(inlineText(li.FirstChild(), p.body))
		id, err := p.idFor(a.ID, label, line)
		if err != nil {
			return err
		}
		if err := p.claim("checkbox", id, line); err != nil {
			return err
		}

		item := &ChecklistItem{ID: id, Label: label, Time: a.Get("time"), Line: line}
		p.guide.checkboxes[id] = item
		p.guide.itemSteps[id] = p.step
		items = append(items, item)
	}
	p.add(&Block{Kind: BlockChecklist, Items: items})
	return nil
}

func (p *guideParser) prompt(fenced *ast.FencedCodeBlock) error {
	line := p.lineOf(fenced)
	var info string
	if fenced.Info != nil {
		info = string(fenced.Info.Segment.Value(p.body))
	}
	_, rest, _ := strings.Cut(strings.TrimSpace(info), " ")
	a := parseAttrs(rest)

	label := a.Get("label")
	id := a.ID
	if v := a.Get("id"); v != "" {
		id = v
	}
	id, err := p.idFor(id, label, line)
	if err != nil {
		return err
	}
	if err := p.claim("prompt", id, line); err != nil {
		return err
	}
	if label == "" {
		label = "Prompt"
	}

	var buf bytes.Buffer
	lines := fenced.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(p.body))
	}
	body := strings.TrimSpace(buf.String())
	if body == "" {
		return p.errorf(line, "prompt %q is empty", id)
	}

	pr := &Prompt{ID: id, Label: label, Text: body, Workflow: a.Get("workflow"), Line: line}
	p.guide.prompts[id] = pr
	p.add(&Block{Kind: BlockPrompt, Prompt: pr})
	return nil
}

func (p *guideParser) rules(t *extast.Table) *RulesTable {
	rt := &RulesTable{}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, p.body))
		}
		if _, ok := row.(*extast.TableHeader); ok {
			rt.Header = cells
			continue
		}
		rt.Rows = append(rt.Rows, cells)
	}
	return rt
}

func (p *guideParser) prose(n ast.Node) error {
	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, p.body, n); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	p.appendProse(template.HTML(buf.String()))
	return nil
}

// appendProse merges consecutive prose into one block.
func (p *guideParser) appendProse(html template.HTML) {
	target := p.target()
	if n := len(*target); n > 0 && (*target)[n-1].Kind == BlockProse {
		(*target)[n-1].HTML += html
		return
	}
	p.add(&Block{Kind: BlockProse, HTML: html})
}

func (p *guideParser) add(b *Block) {
	target := p.target()
	*target = append(*target, b)
}

func (p *guideParser) target() *[]*Block {
	if p.section != nil {
		return &p.section.Blocks
	}
	return p.blocks
}

// idFor returns explicit, or a slug of text when explicit is empty.
func (p *guideParser) idFor(explicit, text string, line int) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if id := slugify(text); id != "" {
		return id, nil
	}
	return "", p.errorf(line, "cannot derive an id from %q", text).
		WithHint("Add an explicit {#id}")
}

// claim records id in namespace ns, rejecting duplicates.
func (p *guideParser) claim(ns, id string, line int) error {
	key := ns + ":" + id
	if first, ok := p.seen[key]; ok {
		return p.errorf(line, "duplicate %s id %q", ns, id).
			WithHint("Give each item a unique {#id}").
			WithRelated(fmt.Sprintf("First defined at line %d", first))
	}
	p.seen[key] = line
	return nil
}

// lineOf maps a node to its 1-indexed line in the original file.
func (p *guideParser) lineOf(n ast.Node) int {
	off := offsetOf(n)
	if off < 0 {
		return 0
	}
	line := p.lineOffset + bytes.Count(p.body[:off], []byte("\n")) + 1
	if _, ok := n.(*ast.FencedCodeBlock); ok {
		line-- // opening fence
	}
	return line
}

func offsetOf(n ast.Node) int {
	if fenced, ok := n.(*ast.FencedCodeBlock); ok && fenced.Lines().Len() == 0 && fenced.Info != nil {
		return fenced.Info.Segment.Start
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off := offsetOf(c); off >= 0 {
			return off
		}
	}
	return -1
}

func isTaskList(list *ast.List) bool {
	first := list.FirstChild()
	return first != nil && taskBox(first) != nil
}

func taskBox(li ast.Node) *extast.TaskCheckBox {
	block := li.FirstChild()
	if block == nil {
		return nil
	}
	box, _ := block.FirstChild().(*extast.TaskCheckBox)
	return box
}

// inlineText concatenates the text under n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
