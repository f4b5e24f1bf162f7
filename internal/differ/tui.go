// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pexctl/pexctl/internal/export"
)

// SelectVersions runs the interactive picker over items and returns the two
// versions chosen, in toggle order. A dismissed picker returns nil.
func SelectVersions(items []*export.Version) []*export.Version {
	final, _ := tea.NewProgram(picker{versions: items}).Run()

	p, ok := final.(picker)
	if !ok || p.dismissed {
		return nil
	}

	selected := make([]*export.Version, 0, len(p.picks))
	for _, idx := range p.picks {
		selected = append(selected, p.versions[idx])
	}

	return selected
}

// picker is the bubbletea model behind SelectVersions. picks holds indexes
// into versions, oldest toggle first.
type picker struct {
	versions  []*export.Version
	cursor    int
	picks     []int
	dismissed bool
}

func (p picker) Init() tea.Cmd { return nil }

func (p picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch key.String() {
	case "w":
		return p, tea.WindowSize()
	case "q", "esc", "ctrl+c":
		p.dismissed = true
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.versions)-1 {
			p.cursor++
		}
	case " ":
		p.toggle()
	case "enter":
		if len(p.picks) == 2 {
			return p, tea.Quit
		}
	}

	return p, nil
}

// toggle flips the selection under the cursor, keeping at most two picks.
func (p *picker) toggle() {
	if i := slices.Index(p.picks, p.cursor); i >= 0 {
		p.picks = slices.Delete(p.picks, i, i+1)
		return
	}

	if len(p.picks) < 2 {
		p.picks = append(p.picks, p.cursor)
	}
}

func (p picker) View() string {
	var b strings.Builder
	b.WriteString("Select two export versions:\n\n")

	for i, ev := range p.versions {
		cursor := " "
		if i == p.cursor {
			cursor = ">"
		}
		mark := " "
		if slices.Contains(p.picks, i) {
			mark = "x"
		}

		fmt.Fprintf(&b, "%s [%s] %s %4d %s\n",
			cursor, mark, ev.ID, ev.VersionNumber, ev.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}

	b.WriteString("\nSPACE: toggle, ENTER: go, Q/ESCAPE: quit\n")

	return b.String()
}
