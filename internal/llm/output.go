package llm

import "strings"

// CleanOutput strips the code fences some models wrap plain text in.
func CleanOutput(text string) string {
	text = strings.TrimSpace(text)
	for _, fence := range []string{"```markdown", "```html", "```text", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			text = strings.TrimSuffix(strings.TrimSpace(text), "```")
			break
		}
	}
	return strings.TrimSpace(text)
}
