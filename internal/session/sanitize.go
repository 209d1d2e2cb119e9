package session

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var messagePolicy = bluemonday.StrictPolicy()

// markup matches comments and tags with a known HTML element name. Any other
// angle bracket is maths ("x<y", "c>d") and must survive sanitizing.
var markup = regexp.MustCompile(`(?is)<!--.*?-->|</?(?:a|abbr|b|big|blockquote|body|br|button|code|del|div|em|embed|font|form|h[1-6]|head|hr|html|i|iframe|img|input|ins|li|link|mark|meta|object|ol|option|p|pre|q|s|script|select|small|span|strike|strong|style|sub|sup|svg|table|tbody|td|textarea|th|thead|title|tr|tt|u|ul)(?:\s[^<>]*)?/?>`)

var strayBrackets = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// sanitizeMessage strips markup from student input and trims it. The
// policy escapes entities, so they are decoded again to keep apostrophes
// and comparison signs readable for the tutor.
func sanitizeMessage(s string) string {
	return strings.TrimSpace(html.UnescapeString(messagePolicy.Sanitize(escapeStray(s))))
}

// escapeStray entity-encodes angle brackets outside real tags.
func escapeStray(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range markup.FindAllStringIndex(s, -1) {
		b.WriteString(strayBrackets.Replace(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strayBrackets.Replace(s[last:]))
	return b.String()
}
