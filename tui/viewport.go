// viewport.go provides a scrollable, word-wrapped text area used by the
// chat transcript.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Viewport is a scrollable text area. Content is wrapped to the
// viewport width, so styled lines keep their escape sequences intact.
type Viewport struct {
	width   int
	height  int
	content string
	lines   []string // content wrapped to width
	scrollY int
}

// NewViewport creates a viewport with the given dimensions.
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:  width,
		height: height,
	}
}

// SetContent replaces the viewport content.
func (v *Viewport) SetContent(content string) {
	v.content = content
	v.wrap()
}

// SetContentLines replaces the viewport content with pre-split lines.
func (v *Viewport) SetContentLines(lines []string) {
	v.SetContent(strings.Join(lines, "\n"))
}

// SetSize updates viewport dimensions and rewraps the content.
func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.wrap()
}

// ScrollUp moves the viewport up by n lines.
func (v *Viewport) ScrollUp(n int) {
	v.scrollY -= n
	v.clampScroll()
}

// ScrollDown moves the viewport down by n lines.
func (v *Viewport) ScrollDown(n int) {
	v.scrollY += n
	v.clampScroll()
}

// PageUp scrolls up by one page.
func (v *Viewport) PageUp() {
	v.ScrollUp(v.height)
}

// PageDown scrolls down by one page.
func (v *Viewport) PageDown() {
	v.ScrollDown(v.height)
}

// Home scrolls to the top.
func (v *Viewport) Home() {
	v.scrollY = 0
}

// End scrolls to the bottom.
func (v *Viewport) End() {
	v.scrollY = v.maxScrollY()
}

// AtBottom reports whether the last line is visible.
func (v *Viewport) AtBottom() bool {
	return v.scrollY >= v.maxScrollY()
}

// Render returns the visible portion of the content.
func (v *Viewport) Render() string {
	if len(v.lines) == 0 {
		return ""
	}

	end := v.scrollY + v.height
	if end > len(v.lines) {
		end = len(v.lines)
	}
	visible := append([]string(nil), v.lines[v.scrollY:end]...)

	// Pad to fill viewport height
	for len(visible) < v.height {
		visible = append(visible, "")
	}

	content := strings.Join(visible, "\n")
	if indicator := v.scrollIndicator(); indicator != "" {
		return lipgloss.JoinVertical(lipgloss.Left, content, indicator)
	}
	return content
}

func (v *Viewport) wrap() {
	if v.content == "" {
		v.lines = nil
		v.clampScroll()
		return
	}
	text := v.content
	if v.width > 0 {
		text = lipgloss.NewStyle().Width(v.width).Render(text)
	}
	v.lines = strings.Split(text, "\n")
	v.clampScroll()
}

func (v *Viewport) clampScroll() {
	maxY := v.maxScrollY()
	if v.scrollY > maxY {
		v.scrollY = maxY
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

func (v *Viewport) maxScrollY() int {
	max := len(v.lines) - v.height
	if max < 0 {
		return 0
	}
	return max
}

func (v *Viewport) scrollIndicator() string {
	total := len(v.lines)
	if total <= v.height {
		return ""
	}
	pct := ((v.scrollY + v.height) * 100) / total
	label := fmt.Sprintf(" %d%% (%d/%d)", pct, v.scrollY+1, total)
	dashes := v.width - lipgloss.Width(label)
	if dashes < 0 {
		dashes = 0
	}
	return StyleDimmed.Render(strings.Repeat("─", dashes) + label)
}
