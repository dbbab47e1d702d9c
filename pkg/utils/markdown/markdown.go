// Package markdown renders operator-supplied markdown into sanitized HTML.
package markdown

import (
	"bytes"
	"html/template"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Markdown wraps markdown source code and caches its rendered forms.
type Markdown struct {
	// Source is the markdown source code.
	Source string

	renderedHTML *template.HTML
	renderedText *string
}

var (
	bfRenderer = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.HrefTargetBlank | blackfriday.Smartypants | blackfriday.SmartypantsDashes,
	})
	bfExtensions = blackfriday.NoIntraEmphasis | blackfriday.Tables | blackfriday.FencedCode | blackfriday.Autolink | blackfriday.Strikethrough | blackfriday.SpaceHeadings | blackfriday.NoEmptyLineBeforeBlock
	policy       = bluemonday.UGCPolicy()
)

// NewMarkdown renders both forms up front so a shared value is read-only
// afterwards.
func NewMarkdown(source string) *Markdown {
	md := &Markdown{Source: source}
	if source != "" {
		md.Render()
		md.PlainText()
	}
	return md
}

// Load resolves a notice setting. A value naming a readable file is loaded
// from disk; anything else is treated as inline markdown.
func Load(setting string) (*Markdown, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" || strings.ContainsAny(setting, "\n*#[") {
		return NewMarkdown(setting), nil
	}
	info, err := os.Stat(setting)
	if err != nil || info.IsDir() {
		return NewMarkdown(setting), nil
	}
	b, err := os.ReadFile(setting)
	if err != nil {
		return nil, err
	}
	return NewMarkdown(string(b)), nil
}

// Empty reports whether there is anything to show.
func (m *Markdown) Empty() bool {
	return m == nil || strings.TrimSpace(m.Source) == ""
}

func (m *Markdown) run() []byte {
	return blackfriday.Run([]byte(m.Source),
		blackfriday.WithRenderer(bfRenderer),
		blackfriday.WithExtensions(bfExtensions),
	)
}

// Render converts the Markdown Source into sanitized HTML.
func (m *Markdown) Render() template.HTML {
	if m.renderedHTML != nil {
		return *m.renderedHTML
	}

	safe := policy.SanitizeBytes(m.run())
	html := template.HTML(bytes.TrimSpace(safe))
	m.renderedHTML = &html
	return html
}

// PlainText strips all markup, for places like meta descriptions.
func (m *Markdown) PlainText() string {
	if m.renderedText != nil {
		return *m.renderedText
	}

	text := string(bytes.TrimSpace(bluemonday.StrictPolicy().SanitizeBytes(m.run())))
	m.renderedText = &text
	return text
}
