package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arvindn/genaicost/internal/monitor"
	"github.com/arvindn/genaicost/internal/plan"
	"github.com/arvindn/genaicost/internal/record"
	"github.com/arvindn/genaicost/internal/sources"
)

type stubSource struct {
	provider record.Provider
	records  []record.Record
	pulled   bool
}

func (s *stubSource) Provider() record.Provider { return s.provider }

func (s *stubSource) PullNewRecords() ([]record.Record, []sources.LimitEvent, int, error) {
	if s.pulled {
		return nil, nil, 0, nil
	}
	s.pulled = true
	return s.records, nil, 0, nil
}

func (s *stubSource) Changed() <-chan struct{} { return nil }
func (s *stubSource) Close() error             { return nil }

func tickedModel(t *testing.T) Model {
	t.Helper()
	now := time.Now().UTC()
	src := &stubSource{
		provider: record.ProviderClaude,
		records: []record.Record{
			{
				Timestamp: now.Add(-time.Minute),
				Model:     "claude-sonnet",
				Tokens:    record.TokenUsage{Input: 40_000, Output: 2_000},
				Cost:      0.15,
				MessageID: "m1",
				Provider:  record.ProviderClaude,
			},
		},
	}

	limits := plan.Default(plan.Pro)
	driver := monitor.NewDriver(time.Second, monitor.ProviderConfig{
		Provider: record.ProviderClaude,
		Source:   src,
		Limits:   limits,
	})
	driver.Tick(context.Background())

	return NewModel(driver, ThemeByName("Gruvbox"), time.UTC, time.Second)
}

func TestViewBeforeFirstTick(t *testing.T) {
	driver := monitor.NewDriver(time.Second)
	m := NewModel(driver, gruvbox, time.UTC, time.Second)
	if !strings.Contains(m.View(), "waiting for first tick") {
		t.Errorf("expected waiting message, got %q", m.View())
	}
}

func TestViewRendersProviderPanel(t *testing.T) {
	m := tickedModel(t)
	out := m.View()

	for _, want := range []string{"genaicost", "CLAUDE", "plan pro", "42.0k", "burn"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	m := tickedModel(t)
	for _, key := range []string{"q", "ctrl+c"} {
		var msg tea.KeyMsg
		if key == "q" {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %s should quit", key)
		}
	}
}

func TestUpdateTickReschedules(t *testing.T) {
	m := tickedModel(t)
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	nm := next.(Model)
	if len(nm.burnHistory[record.ProviderClaude]) != 1 {
		t.Errorf("expected one burn sample, got %d", len(nm.burnHistory[record.ProviderClaude]))
	}
}

func TestThemeByNameFallsBack(t *testing.T) {
	if got := ThemeByName("does-not-exist"); got.Name != "Gruvbox" {
		t.Errorf("fallback theme = %q, want Gruvbox", got.Name)
	}
}
