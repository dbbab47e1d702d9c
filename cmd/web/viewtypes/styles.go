package viewtypes

// Shared CSS class strings used across templates. The rules live in
// static/dist/main.css.

var PageHeading = "page-heading"

var SectionLabel = "section-label"

// InfoBoxClass is the standard panel container.
var InfoBoxClass = "panel"

var InputClass = "input"

var PrimaryButton = "btn btn-primary"

// GhostButtonSm is a small outlined button.
var GhostButtonSm = "btn btn-ghost btn-sm"

var ErrorText = "msg msg-error"

var SuccessText = "msg msg-success"

var MutedText = "muted"
