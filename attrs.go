package speedlaunch

import (
	"regexp"
	"strings"
	"unicode"
)

// attrs holds a trailing {#id key=value flag} annotation.
type attrs struct {
	ID     string
	Values map[string]string
}

func (a attrs) Has(key string) bool {
	_, ok := a.Values[key]
	return ok
}

func (a attrs) Get(key string) string {
	return a.Values[key]
}

var trailingAttrs = regexp.MustCompile(`\s*\{([^{}]*)\}\s*$`)

// splitAttrs strips a trailing {...} annotation from text and parses it.
// Text without one returns empty attrs.
func splitAttrs(text string) (string, attrs) {
	a := attrs{Values: map[string]string{}}
	loc := trailingAttrs.FindStringSubmatchIndex(text)
	if loc == nil {
		return strings.TrimSpace(text), a
	}
	a = parseAttrs(text[loc[2]:loc[3]])
	return strings.TrimSpace(text[:loc[0]]), a
}

// parseAttrs parses space-separated tokens: #id, key=value, key="quoted
// value", or a bare flag.
func parseAttrs(s string) attrs {
	a := attrs{Values: map[string]string{}}
	for _, tok := range splitFields(s) {
		switch {
		case strings.HasPrefix(tok, "#"):
			a.ID = tok[1:]
		case strings.Contains(tok, "="):
			key, value, _ := strings.Cut(tok, "=")
			a.Values[key] = strings.Trim(value, `"`)
		default:
			a.Values[tok] = ""
		}
	}
	return a
}

// splitFields splits on whitespace outside double quotes.
func splitFields(s string) []string {
	var fields []string
	var cur strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case unicode.IsSpace(r) && !quoted:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

// slugify derives an id from display text: lowercase ASCII letters and
// digits separated by single dashes.
func slugify(text string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// PromptSegment is a run of prompt text; Placeholder marks a [BRACKETED]
// span the user is expected to replace.
type PromptSegment struct {
	Text        string
	Placeholder bool
}

var placeholderPattern = regexp.MustCompile(`\[[^\]]+\]`)

// Segments splits the prompt text around [placeholders].
func (p *Prompt) Segments() []PromptSegment {
	var out []PromptSegment
	last := 0
	for _, loc := range placeholderPattern.FindAllStringIndex(p.Text, -1) {
		if loc[0] > last {
			out = append(out, PromptSegment{Text: p.Text[last:loc[0]]})
		}
		out = append(out, PromptSegment{Text: p.Text[loc[0]:loc[1]], Placeholder: true})
		last = loc[1]
	}
	if last < len(p.Text) {
		out = append(out, PromptSegment{Text: p.Text[last:]})
	}
	return out
}
