package book

import "strings"

// StripMarkup converts editor rich text (HTML fragments) to plain text.
// Block-level closers become newlines so paragraph boundaries survive.
func StripMarkup(content string) string {
	if content == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(content))
	inTag := false
	tagStart := 0
	for i, r := range content {
		switch {
		case r == '<':
			inTag = true
			tagStart = i
		case r == '>' && inTag:
			inTag = false
			tag := strings.ToLower(content[tagStart+1 : i])
			tag = strings.TrimPrefix(tag, "/")
			tag = strings.TrimSuffix(tag, "/")
			if j := strings.IndexAny(tag, " \t\n"); j >= 0 {
				tag = tag[:j]
			}
			switch tag {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "li", "blockquote":
				sb.WriteByte('\n')
			}
		case !inTag:
			sb.WriteRune(r)
		}
	}

	text := entityReplacer.Replace(sb.String())

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", "\"",
	"&#39;", "'",
	"&rsquo;", "'",
	"&ldquo;", "“",
	"&rdquo;", "”",
	"&hellip;", "…",
)

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// WrapMarkup converts guarded plain text back into the editor's paragraph
// markup, one <p> per non-empty line.
func WrapMarkup(plain string) string {
	var sb strings.Builder
	for _, line := range strings.Split(plain, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(markupEscaper.Replace(line))
		sb.WriteString("</p>")
	}
	return sb.String()
}

// CountWords counts whitespace-separated words in plain text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

var diacriticFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ñ", "n", "ç", "c",
	"Á", "a", "À", "a", "Ä", "a", "Â", "a",
	"É", "e", "È", "e", "Ë", "e", "Ê", "e",
	"Í", "i", "Ì", "i", "Ï", "i", "Î", "i",
	"Ó", "o", "Ò", "o", "Ö", "o", "Ô", "o",
	"Ú", "u", "Ù", "u", "Ü", "u", "Û", "u",
	"Ñ", "n", "Ç", "c",
)

// Normalize lowercases text and folds Spanish diacritics so that matching
// is accent-insensitive.
func Normalize(text string) string {
	return strings.ToLower(diacriticFolder.Replace(text))
}

// stopwords that carry no relevance signal in either product language.
var stopwords = map[string]bool{
	// Spanish
	"los": true, "las": true, "una": true, "uno": true, "unos": true, "unas": true,
	"del": true, "con": true, "por": true, "para": true, "que": true, "como": true,
	"mas": true, "pero": true, "sus": true, "este": true, "esta": true, "estos": true,
	"estas": true, "ese": true, "esa": true, "muy": true, "sin": true, "sobre": true,
	"entre": true, "cuando": true, "donde": true, "desde": true, "hasta": true,
	"tambien": true, "habia": true, "era": true, "fue": true, "ser": true, "estar": true,
	// English
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"was": true, "are": true, "were": true, "have": true, "has": true, "had": true,
	"not": true, "but": true, "his": true, "her": true, "its": true, "they": true,
	"them": true, "then": true, "than": true, "into": true, "from": true, "when": true,
	"where": true, "which": true, "there": true, "their": true, "about": true,
}

// Tokenize normalizes text and returns the set of scoring tokens: at least
// three characters, stopwords removed.
func Tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	norm := Normalize(text)
	for _, field := range strings.FieldsFunc(norm, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}) {
		if len(field) < 3 || stopwords[field] {
			continue
		}
		tokens[field] = true
	}
	return tokens
}
