// Package markdown renders the restricted Discord inline-markup dialect into
// sanitized HTML for preview rendering. The output is presentation-only and
// is never part of an outbound payload.
//
// The renderer is deliberately not a tokenizing parser: it applies a fixed
// sequence of independent regex substitutions, so the order of the rules is
// significant and nesting beyond what a single left-to-right pass supports
// is best-effort.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// escapePattern leaves already-escaped entities alone so that rendering
	// previously rendered text never double-escapes.
	escapePattern = regexp.MustCompile(`&(?:amp|lt|gt);|[&<>]`)

	spoilerPattern    = regexp.MustCompile(`\|\|(.*?)\|\|`)
	boldItalicPattern = regexp.MustCompile(`\*\*\*(.*?)\*\*\*`)
	boldPattern       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicStarPattern = regexp.MustCompile(`\*(.*?)\*`)
	italicUnderscore  = regexp.MustCompile(`_(.*?)_`)
	underlinePattern  = regexp.MustCompile(`__(.*?)__`)
	strikePattern     = regexp.MustCompile(`~~(.*?)~~`)

	codeBlockPattern  = regexp.MustCompile("(?s)```([a-z]*)\n(.*?)```")
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")

	multiQuotePattern = regexp.MustCompile(`(?m)^&gt;&gt;&gt;\s(.+)$`)
	blockquotePattern = regexp.MustCompile(`(?m)^&gt;\s(.+)$`)

	bulletDashPattern = regexp.MustCompile(`(?m)^-\s(.+)$`)
	bulletStarPattern = regexp.MustCompile(`(?m)^\*\s(.+)$`)
	numberedPattern   = regexp.MustCompile(`(?m)^(\d+)\.\s(.+)$`)

	autolinkPattern = regexp.MustCompile(`(https?://[^\s<]+)`)

	bulletRunPattern   = regexp.MustCompile(`(?s)<li class="disc">.*?</li>(?:\n*<li class="disc">.*?</li>)*`)
	numberedRunPattern = regexp.MustCompile(`(?s)<li class="decimal">.*?</li>(?:\n*<li class="decimal">.*?</li>)*`)
	itemSeparator      = regexp.MustCompile(`</li>\n*<li`)
)

// Render converts text into sanitized preview HTML. Source text is escaped
// before any markup substitution, so user-supplied angle brackets and
// ampersands never re-enter as structural markup.
func Render(text string) string {
	if text == "" {
		return ""
	}

	out := escapeHTML(text)

	out = spoilerPattern.ReplaceAllString(out, `<span class="spoiler">$1</span>`)
	out = boldItalicPattern.ReplaceAllString(out, `<strong><em>$1</em></strong>`)
	out = boldPattern.ReplaceAllString(out, `<strong>$1</strong>`)
	out = italicStarPattern.ReplaceAllString(out, `<em>$1</em>`)
	out = italicUnderscore.ReplaceAllString(out, `<em>$1</em>`)
	out = underlinePattern.ReplaceAllString(out, `<u>$1</u>`)
	out = strikePattern.ReplaceAllString(out, `<s>$1</s>`)

	out = codeBlockPattern.ReplaceAllStringFunc(out, func(block string) string {
		m := codeBlockPattern.FindStringSubmatch(block)
		language := m[1]
		if language == "" {
			language = "Plain text"
		}
		return fmt.Sprintf(`<div class="codeblock"><div class="codeblock-lang">%s</div><pre>%s</pre></div>`, language, m[2])
	})
	out = inlineCodePattern.ReplaceAllString(out, `<code class="inline-code">$1</code>`)

	out = multiQuotePattern.ReplaceAllString(out, `<div class="blockquote">$1</div>`)
	out = blockquotePattern.ReplaceAllString(out, `<div class="blockquote">$1</div>`)

	out = bulletDashPattern.ReplaceAllString(out, `<li class="disc">$1</li>`)
	out = bulletStarPattern.ReplaceAllString(out, `<li class="disc">$1</li>`)
	out = numberedPattern.ReplaceAllString(out, `<li class="decimal">$2</li>`)

	out = autolinkPattern.ReplaceAllString(out, `<a href="$1" target="_blank" rel="noopener noreferrer">$1</a>`)

	out = groupListItems(out)

	return strings.ReplaceAll(out, "\n", "<br />")
}

func escapeHTML(text string) string {
	return escapePattern.ReplaceAllStringFunc(text, func(m string) string {
		switch m {
		case "&":
			return "&amp;"
		case "<":
			return "&lt;"
		case ">":
			return "&gt;"
		default:
			// Already an entity.
			return m
		}
	})
}

// groupListItems wraps runs of adjacent list items in a single enclosing
// list container. Items are adjacent only when nothing but the line breaks
// the line-level substitution left behind separates them; those breaks are
// consumed so they do not render inside the list.
func groupListItems(formatted string) string {
	formatted = bulletRunPattern.ReplaceAllStringFunc(formatted, func(run string) string {
		return "<ul>" + itemSeparator.ReplaceAllString(run, "</li><li") + "</ul>"
	})
	formatted = numberedRunPattern.ReplaceAllStringFunc(formatted, func(run string) string {
		return "<ol>" + itemSeparator.ReplaceAllString(run, "</li><li") + "</ol>"
	})
	return formatted
}
