// Package ctxkeys names the request-context values templates read.
package ctxkeys

type Key int

const (
	Theme  Key = iota // theme.Theme: page styling
	Notice            // *markdown.Markdown: operator notice shown above the form
)
