// view_connect.go is the connection form shown in the sidebar.
//
// The form stays visible for the whole session: submitting it again
// replaces the active connection. Fields are pre-filled from the
// config file's database section.
//
//	↑/↓     move between fields
//	Enter   edit a field / confirm / press Connect
//	←/→     cycle the driver
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DachengChen/chatdb/config"
)

const (
	fieldDriver = iota
	fieldHost
	fieldPort
	fieldUser
	fieldPassword
	fieldDatabase
	fieldConnect
	fieldCount // sentinel
)

var fieldLabels = map[int]string{
	fieldDriver:   "Driver",
	fieldHost:     "Host",
	fieldPort:     "Port",
	fieldUser:     "Username",
	fieldPassword: "Password",
	fieldDatabase: "Database",
	fieldConnect:  "Connect",
}

const labelWidth = 12

// ConnectView is the database connection form.
type ConnectView struct {
	ctx        context.Context
	chatter    Chatter
	base       config.Database // carries the settings the form does not show
	fields     []string
	focusField int
	editing    bool
	connecting bool
	err        error
	statusMsg  string
	focused    bool
	width      int
	height     int
}

func NewConnectView(ctx context.Context, chatter Chatter, prefill config.Database) *ConnectView {
	v := &ConnectView{
		ctx:        ctx,
		chatter:    chatter,
		base:       prefill,
		fields:     make([]string, fieldCount),
		focusField: fieldHost,
	}
	v.fields[fieldDriver] = prefill.Driver
	if v.fields[fieldDriver] == "" {
		v.fields[fieldDriver] = config.DriverMySQL
	}
	v.fields[fieldHost] = prefill.Host
	v.fields[fieldPort] = strconv.Itoa(prefill.Port)
	v.fields[fieldUser] = prefill.User
	v.fields[fieldPassword] = prefill.Password
	v.fields[fieldDatabase] = prefill.Name
	if v.sqlite() {
		v.focusField = fieldDatabase
	}
	return v
}

func (v *ConnectView) Name() string { return "Connect to database" }

func (v *ConnectView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *ConnectView) SetFocused(focused bool) {
	v.focused = focused
	if !focused {
		v.editing = false
	}
}

func (v *ConnectView) ShortHelp() []KeyBinding {
	if v.editing {
		return []KeyBinding{
			{Key: "Enter", Desc: "confirm"},
			{Key: "Esc", Desc: "done"},
			{Key: "Ctrl+U", Desc: "clear"},
		}
	}
	return []KeyBinding{
		{Key: "↑/↓", Desc: "navigate"},
		{Key: "Enter", Desc: "edit/connect"},
		{Key: "←/→", Desc: "driver"},
	}
}

func (v *ConnectView) Init() tea.Cmd { return nil }

func (v *ConnectView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.editing {
			return v.handleEditing(msg)
		}
		return v.handleNavigation(msg)

	case ConnectedMsg:
		v.connecting = false
		v.err = nil
		v.statusMsg = "Database connected"
		return v, nil

	case ConnectErrorMsg:
		v.connecting = false
		v.err = msg.Err
		v.statusMsg = ""
		return v, nil
	}

	return v, nil
}

func (v *ConnectView) handleNavigation(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		v.move(-1)
	case "down", "j":
		v.move(1)
	case "left", "h":
		if v.focusField == fieldDriver {
			v.cycleDriver(-1)
		}
	case "right", "l":
		if v.focusField == fieldDriver {
			v.cycleDriver(1)
		}
	case "enter":
		return v.handleAction()
	}
	return v, nil
}

func (v *ConnectView) handleEditing(msg tea.KeyMsg) (View, tea.Cmd) {
	field := v.focusField

	switch msg.String() {
	case "enter", "esc":
		v.editing = false
	case "backspace":
		if r := []rune(v.fields[field]); len(r) > 0 {
			v.fields[field] = string(r[:len(r)-1])
		}
	case "ctrl+u":
		v.fields[field] = ""
	default:
		if msg.Type == tea.KeyRunes {
			v.fields[field] += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			v.fields[field] += " "
		}
	}
	return v, nil
}

func (v *ConnectView) handleAction() (View, tea.Cmd) {
	switch v.focusField {
	case fieldDriver:
		v.cycleDriver(1)
		return v, nil
	case fieldConnect:
		return v, v.connect()
	default:
		v.editing = true
		return v, nil
	}
}

// move steps the focus, skipping fields sqlite does not use.
func (v *ConnectView) move(dir int) {
	for {
		v.focusField = (v.focusField + dir + fieldCount) % fieldCount
		if !v.hidden(v.focusField) {
			return
		}
	}
}

func (v *ConnectView) hidden(field int) bool {
	if !v.sqlite() {
		return false
	}
	switch field {
	case fieldHost, fieldPort, fieldUser, fieldPassword:
		return true
	}
	return false
}

func (v *ConnectView) sqlite() bool {
	return v.fields[fieldDriver] == config.DriverSQLite
}

// cycleDriver switches the driver. A port still at the old driver's
// default follows the new driver's default.
func (v *ConnectView) cycleDriver(dir int) {
	cur := 0
	for i, d := range config.Drivers {
		if d == v.fields[fieldDriver] {
			cur = i
			break
		}
	}
	next := config.Drivers[(cur+dir+len(config.Drivers))%len(config.Drivers)]

	oldDefault := strconv.Itoa(config.DefaultPort(v.fields[fieldDriver]))
	if v.fields[fieldPort] == "" || v.fields[fieldPort] == oldDefault || v.fields[fieldPort] == "0" {
		v.fields[fieldPort] = strconv.Itoa(config.DefaultPort(next))
	}
	v.fields[fieldDriver] = next
}

// Descriptor builds the connection descriptor from the form.
func (v *ConnectView) Descriptor() (config.Database, error) {
	d := v.base
	d.Driver = v.fields[fieldDriver]
	d.Name = strings.TrimSpace(v.fields[fieldDatabase])
	if v.sqlite() {
		d.Host, d.Port, d.User, d.Password = "", 0, "", ""
		return d, nil
	}
	d.Host = strings.TrimSpace(v.fields[fieldHost])
	d.User = strings.TrimSpace(v.fields[fieldUser])
	d.Password = v.fields[fieldPassword]
	port, err := strconv.Atoi(strings.TrimSpace(v.fields[fieldPort]))
	if err != nil {
		return d, fmt.Errorf("port %q is not a number", v.fields[fieldPort])
	}
	d.Port = port
	return d, nil
}

func (v *ConnectView) connect() tea.Cmd {
	desc, err := v.Descriptor()
	if err != nil {
		v.err = err
		v.statusMsg = ""
		return nil
	}

	v.connecting = true
	v.statusMsg = "Connecting..."
	v.err = nil

	ctx, chatter := v.ctx, v.chatter
	return func() tea.Msg {
		if err := chatter.Connect(ctx, desc); err != nil {
			return ConnectErrorMsg{Err: err}
		}
		return ConnectedMsg{Desc: desc}
	}
}

func (v *ConnectView) View() string {
	inputW := v.width - labelWidth - 2
	if inputW < 8 {
		inputW = 8
	}

	var lines []string
	lines = append(lines, StyleTitle.Render("Connect to database"))
	lines = append(lines, v.renderSelectField(fieldDriver))
	for _, id := range []int{fieldHost, fieldPort, fieldUser, fieldPassword, fieldDatabase} {
		if v.hidden(id) {
			continue
		}
		lines = append(lines, v.renderField(id, inputW))
	}
	if v.sqlite() {
		lines = append(lines, StyleDimmed.Render("Database is the file path."))
	}
	lines = append(lines, "", v.renderButton(fieldConnect), "")

	switch {
	case v.connecting:
		lines = append(lines, StyleDimmed.Render("⏳ "+v.statusMsg))
	case v.err != nil:
		lines = append(lines, lipgloss.NewStyle().Width(v.width).Render(StyleError.Render("✗ "+errorText(v.err))))
	case v.statusMsg != "":
		lines = append(lines, StyleSuccess.Render("✓ "+v.statusMsg))
	}

	return strings.Join(lines, "\n")
}

func (v *ConnectView) renderLabel(id int) string {
	label := fieldLabels[id]
	if v.focused && v.focusField == id {
		return StyleInputFocused.Width(labelWidth).Render("▸ " + label)
	}
	return StyleDimmed.Width(labelWidth).Render(label)
}

// renderField renders a form input field. The password is masked.
func (v *ConnectView) renderField(id, inputWidth int) string {
	value := v.fields[id]
	if id == fieldPassword {
		value = strings.Repeat("•", len([]rune(value)))
	}

	if v.focused && v.focusField == id {
		cursor := ""
		if v.editing {
			cursor = "█"
		}
		input := StyleNormal.Width(inputWidth).Render(value + cursor)
		return v.renderLabel(id) + " " + input
	}
	return v.renderLabel(id) + " " + StyleDimmed.Render(value)
}

func (v *ConnectView) renderSelectField(id int) string {
	value := v.fields[id]
	if v.focused && v.focusField == id {
		return v.renderLabel(id) + " " + lipgloss.NewStyle().Foreground(ColorAccent).Render("◂ "+value+" ▸")
	}
	return v.renderLabel(id) + " " + StyleDimmed.Render(value)
}

func (v *ConnectView) renderButton(id int) string {
	label := fieldLabels[id]
	if v.focused && v.focusField == id {
		return lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Background(ColorAccent).
			Padding(0, 2).
			Render("⏎ " + label)
	}
	return lipgloss.NewStyle().
		Foreground(ColorDim).
		Padding(0, 2).
		Render("  " + label)
}
