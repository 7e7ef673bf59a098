package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/regsync/internal/portal"
)

const classPreviewLines = 12

// View implements tea.Model.
func (m Model) View() string {
	styles := m.theme.Styles()

	header := styles.MutedText.Render(m.baseURL)
	if m.snapshot.Offline() {
		header += " " + styles.StateBadge(portal.StateTransportFailed.String()).Render("offline")
	}
	sections := []string{
		styles.Logo.Render(createLogo()),
		header,
		"",
	}

	switch m.phase {
	case phaseLogin:
		sections = append(sections, m.renderLogin(styles))
	case phaseWorking:
		sections = append(sections, m.renderWorking(styles))
	case phaseSession:
		sections = append(sections, m.renderSession(styles))
	}

	if line := m.renderError(); line != "" {
		sections = append(sections, "", styles.DangerText.Render(line))
	}
	sections = append(sections, "", m.renderFooter(styles))

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	return body
}

func (m Model) renderLogin(styles Styles) string {
	fields := make([]string, 0, len(m.inputs)*2)
	labels := [...]string{"Username", "Password"}
	for i, input := range m.inputs {
		box := styles.Input
		if i == m.focus {
			box = styles.FocusedInput
		}
		fields = append(fields, styles.MutedText.Render(labels[i]), box.Width(36).Render(input.View()))
	}
	return styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, fields...))
}

func (m Model) renderWorking(styles Styles) string {
	line := m.spinner.View() + " " + styles.Text.Render(m.working)
	snap := m.snapshot
	if snap.LoginState == portal.StateProbing && snap.LoginPath != "" {
		line += styles.MutedText.Render(" · trying " + snap.LoginPath)
	}
	return styles.Panel.Render(line)
}

func (m Model) renderSession(styles Styles) string {
	sess := m.snapshot.Session
	state := m.snapshot.LoginState.String()
	rows := []string{
		styles.StateBadge(state).Render(state),
		"",
		kv(styles, "User", sess.UserID),
		kv(styles, "Role", sess.UserRoleID),
		kv(styles, "School", sess.SchoolID),
		kv(styles, "Teacher", sess.TeacherID),
		kv(styles, "Token", maskToken(sess.AuthToken)),
	}
	if path := m.snapshot.LoginPath; path != "" {
		rows = append(rows, kv(styles, "Login path", path))
	}
	if ack := m.snapshot.LastAck; ack != nil {
		rows = append(rows, kv(styles, "Last sync", fmt.Sprintf("%d records (status %d)", ack.Records, ack.StatusCode)))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		rows = append(rows, styles.FaintText.Render("updated "+humanizeDuration(time.Since(m.snapshot.LastUpdated))+" ago"))
	}
	card := styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))

	if len(m.snapshot.Classes) == 0 {
		return card
	}
	preview := styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.AccentText.Render("Classes"),
		styles.Text.Render(previewJSON(m.snapshot.Classes, classPreviewLines)),
	))
	return lipgloss.JoinVertical(lipgloss.Left, card, preview)
}

// renderError describes the last failure; hidden while a request is in flight.
func (m Model) renderError() string {
	if m.phase == phaseWorking || m.snapshot.LastError == nil {
		return ""
	}
	line := portal.UserMessage(m.snapshot.LastError)
	if n := m.snapshot.ConsecutiveFailures; n > 1 {
		line += fmt.Sprintf(" (%d failed attempts)", n)
	}
	return line
}

func (m Model) renderFooter(styles Styles) string {
	var help string
	switch m.phase {
	case phaseLogin:
		help = helpLine(m.keys.Submit, m.keys.NextField, m.keys.CycleTheme, m.keys.Quit)
	case phaseSession:
		help = helpLine(m.keys.Classes, m.keys.Logout, m.keys.CycleTheme, m.keys.Quit)
	default:
		help = helpLine(m.keys.Quit)
	}
	return styles.Footer.Render(joinNonEmpty([]string{help, m.theme.Name}, "  |  "))
}

func kv(styles Styles, label, value string) string {
	return styles.MutedText.Render(fmt.Sprintf("%-11s", label)) + styles.Text.Render(value)
}

func maskToken(token string) string {
	if token == "" {
		return "-"
	}
	r := []rune(token)
	if len(r) <= 6 {
		return strings.Repeat("•", len(r))
	}
	return string(r[:4]) + strings.Repeat("•", 6)
}

// previewJSON indents raw and keeps at most maxLines lines.
func previewJSON(raw json.RawMessage, maxLines int) string {
	var buf bytes.Buffer
	text := string(raw)
	if err := json.Indent(&buf, raw, "", "  "); err == nil {
		text = buf.String()
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		more := len(lines) - maxLines
		lines = append(lines[:maxLines], fmt.Sprintf("… %d more lines", more))
	}
	return strings.Join(lines, "\n")
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

func joinNonEmpty(parts []string, sep string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
