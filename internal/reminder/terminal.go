package reminder

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	bodyStyle  = lipgloss.NewStyle().PaddingLeft(2)
)

// TerminalNotifier prints reminders to a writer, typically stdout of the
// remind command.
type TerminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (n *TerminalNotifier) Notify(_ context.Context, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "%s\n%s\n", titleStyle.Render("⏰ "+title), bodyStyle.Render(body))
	return err
}
