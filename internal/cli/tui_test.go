package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/carepath/pkg/editor"
)

func loadSession(t *testing.T, body string, opts editor.OpenOptions) *editor.Session {
	t.Helper()
	s := editor.New(nil)
	if err := s.Load([]byte(body), opts); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func press(m InspectModel, msg tea.KeyMsg) InspectModel {
	next, _ := m.Update(msg)
	return next.(InspectModel)
}

func TestInspectModelSelect(t *testing.T) {
	s := loadSession(t, completeGraph, editor.OpenOptions{})
	m := NewInspectModel(s)
	if len(m.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(m.Nodes))
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.Cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.Cursor)
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if sel, ok := s.Elements().Selected(); !ok || sel.ID != "a" {
		t.Errorf("selected = %v, %v", sel, ok)
	}
	if !strings.Contains(m.View(), "Crystalloids") {
		t.Error("detail box does not list the blocks")
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := s.Elements().Selected(); ok {
		t.Error("selection not cleared")
	}
}

func TestInspectModelToggle(t *testing.T) {
	s := loadSession(t, completeGraph, editor.OpenOptions{ReadOnly: true})
	m := NewInspectModel(s)
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})

	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if m.Status != "recommendations shown" {
		t.Errorf("status = %q", m.Status)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if m.Status != "recommendations hidden" {
		t.Errorf("status = %q", m.Status)
	}
}

func TestInspectModelToggleEditable(t *testing.T) {
	m := NewInspectModel(loadSession(t, completeGraph, editor.OpenOptions{}))
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if !strings.HasPrefix(m.Status, "no recommendation list") {
		t.Errorf("status = %q", m.Status)
	}
}

func TestInspectModelQuit(t *testing.T) {
	m := NewInspectModel(loadSession(t, completeGraph, editor.OpenOptions{}))
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Error("q should quit")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"Fluids", 10, "Fluids"},
		{"Crystalloids", 8, "Crystal…"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}
