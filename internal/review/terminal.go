package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"writewme/internal/book"
)

// TerminalResolver is the CLI review surface: it prints each suspended
// request and reads an approve/reject answer from the terminal.
type TerminalResolver struct {
	In  io.Reader
	Out io.Writer
}

// Run consumes gate requests until the context is cancelled.
func (t *TerminalResolver) Run(ctx context.Context, gate *Gate) {
	reader := bufio.NewReader(t.In)
	for {
		select {
		case req := <-gate.Requests():
			req.Resolve(t.ask(reader, req))
		case <-ctx.Done():
			return
		}
	}
}

func (t *TerminalResolver) ask(reader *bufio.Reader, req *Request) bool {
	fmt.Fprintf(t.Out, "\n⚠️  Safe mode: %s\n", req.Title)
	if req.Subtitle != "" {
		fmt.Fprintf(t.Out, "   %s\n", req.Subtitle)
	}
	fmt.Fprintf(t.Out, "   Before: %d words | After: %d words\n",
		book.CountWords(req.BeforeText), book.CountWords(req.AfterText))
	fmt.Fprintf(t.Out, "   Preview: %s\n", preview(req.AfterText, 240))
	fmt.Fprint(t.Out, "Apply this change? [y/N]: ")

	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes" || answer == "s" || answer == "si"
}

func preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
