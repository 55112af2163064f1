// Package statusview renders the bridge's local health-check response as a
// small read-only terminal view, for the optional `status` CLI command.
package statusview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type healthResponse struct {
	Ready    bool `json:"ready"`
	Sessions int  `json:"sessions"`
}

type fetchedMsg struct {
	health healthResponse
	err    error
}

type model struct {
	addr    string
	fetched *fetchedMsg
}

func fetch(addr string) tea.Cmd {
	return func() tea.Msg {
		client := http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get("http://" + addr + "/healthz")
		if err != nil {
			return fetchedMsg{err: err}
		}
		defer resp.Body.Close()
		var h healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
			return fetchedMsg{err: err}
		}
		return fetchedMsg{health: h}
	}
}

func (m model) Init() tea.Cmd {
	return fetch(m.addr)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		m.fetched = &msg
		return m, tea.Quit
	case tea.KeyMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.fetched == nil {
		return "querying bridge status...\n"
	}
	if m.fetched.err != nil {
		return badStyle.Render(fmt.Sprintf("bridge unreachable at %s: %v\n", m.addr, m.fetched.err))
	}
	status := okStyle.Render("ready")
	if !m.fetched.health.Ready {
		status = badStyle.Render("not ready")
	}
	return fmt.Sprintf("%s\n  status:   %s\n  sessions: %d\n",
		titleStyle.Render("ganglion-bridge"), status, m.fetched.health.Sessions)
}

// Run fetches addr's health endpoint once and prints the result.
func Run(addr string) error {
	p := tea.NewProgram(model{addr: addr})
	_, err := p.Run()
	return err
}
