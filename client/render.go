package client

import (
	"bufio"
	"fmt"
	"io"

	domain "github.com/example/preschool-chat/domain/chat"
)

// Renderer draws the full message list of the current view.
type Renderer interface {
	Render(view View, messages []domain.Message) error
}

const clearScreen = "\033[H\033[2J"

// TextRenderer writes a plain text transcript to w. Every call redraws
// the whole view.
type TextRenderer struct {
	w     io.Writer
	clear bool
	me    string
}

// NewTextRenderer creates a renderer writing to w. When clear is true the
// terminal is cleared before each redraw. Messages authored by me are
// marked as own messages.
func NewTextRenderer(w io.Writer, clear bool, me string) *TextRenderer {
	return &TextRenderer{w: w, clear: clear, me: me}
}

// Render implements Renderer.
func (r *TextRenderer) Render(view View, messages []domain.Message) error {
	bw := bufio.NewWriter(r.w)
	if r.clear {
		bw.WriteString(clearScreen)
	}
	fmt.Fprintf(bw, "== %s ==\n", view.Title())
	if len(messages) == 0 {
		bw.WriteString("(no messages yet)\n")
	}
	for _, m := range messages {
		bw.WriteString(r.line(m))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func (r *TextRenderer) line(m domain.Message) string {
	marker := ""
	switch {
	case m.Urgent:
		marker = "[!] "
	case m.Kind == domain.KindAnnouncement:
		marker = "[notice] "
	}
	name := m.Author.Name
	if m.Author.ID == r.me {
		name = "me"
	}
	return fmt.Sprintf("%s %s%s: %s", m.CreatedAt.Local().Format("01/02 15:04"), marker, name, m.Text)
}
