// Package markup composes and escapes Driftline message text, a
// markdown dialect.
package markup

import "strings"

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	`#`, `\#`,
	`|`, `\|`,
	`>`, `\>`,
	`[`, `\[`,
	`]`, `\]`,
)

// Escape neutralizes markup control characters in plain text.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Bold wraps text in bold markers.
func Bold(text string) string {
	return "**" + text + "**"
}

// Italic wraps text in italic markers.
func Italic(text string) string {
	return "_" + text + "_"
}

// Strike wraps text in strikethrough markers.
func Strike(text string) string {
	return "~~" + text + "~~"
}

// Code wraps text in an inline code span.
func Code(text string) string {
	return "`" + text + "`"
}

// CodeBlock wraps text in a fenced code block with an optional
// language tag.
func CodeBlock(lang, text string) string {
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(lang)
	b.WriteString("\n")
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// Link renders a named hyperlink.
func Link(text, url string) string {
	return "[" + text + "](" + url + ")"
}

// UserMention renders an @-mention for a username.
func UserMention(username string) string {
	return "@" + username
}

// ChannelMention renders a ~-mention for a channel name.
func ChannelMention(name string) string {
	return "~" + name
}

// Quote prefixes every line of text as a block quote.
func Quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// Table renders a markdown table. Rows shorter than the header are
// padded with empty cells.
func Table(header []string, rows [][]string) string {
	if len(header) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")

	for _, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
