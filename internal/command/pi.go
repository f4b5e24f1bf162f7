// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/command/pi"
	"github.com/pexctl/pexctl/internal/config"
	"github.com/pexctl/pexctl/internal/loader"
	"github.com/pexctl/pexctl/internal/meta"
)

func piCommandAction(ctx context.Context, cmd *cli.Command) error {
	// PiCommandAction is the action handler for the "pi" subcommand. It
	// loads the selected export for the target root directory and launches
	// an interactive inspector UI to explore prompts and evaluate
	// expressions against them.
	meta := cmd.Metadata["meta"].(meta.Meta)
	log.Debugf("Executing action for %v", meta.Args[1:])

	config.Config.Namespace = "pi"

	// Use the same source detection and export loading as pq
	snapshot, err := loader.LoadSnapshotData(ctx, cmd, meta.RootDir)
	if err != nil {
		return err
	}

	// Run interactive console
	return runPiInteractiveConsole(snapshot)
}

// piModel represents the Bubble Tea model for pi command
type piModel struct {
	input          textinput.Model
	history        []string // Full history for navigation (includes file history)
	sessionHistory []string // Only commands from this session (matches with outputs)
	histIndex      int
	output         []string
	snapshot       map[string]interface{}
}

func initialPiModel(snapshot map[string]interface{}) piModel {
	ti := textinput.New()
	ti.Placeholder = ""
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 999
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorBlink) // Set to blinking vertical line

	// Load history from file
	history := loadPiHistory(getPiHistoryFile())

	// Add initial welcome message
	var output []string
	prompts, ok := snapshot["prompts"].([]interface{})
	if ok {
		output = append(output, fmt.Sprintf("Interactive prompt console loaded. %d prompts found.", len(prompts)))
	}
	output = append(output, "Type 'help' for syntax, 'exit' or Ctrl+C to quit.")

	return piModel{
		input:          ti,
		history:        history,
		sessionHistory: []string{}, // Empty for new session
		histIndex:      -1,
		output:         output,
		snapshot:       snapshot,
	}
}

func (m piModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m piModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			entry := m.input.Value()
			if strings.TrimSpace(entry) != "" {
				// Handle special commands
				if entry == "exit" || entry == "quit" {
					return m, tea.Quit
				}
				if entry == "help" {
					m.history = append(m.history, entry)
					m.sessionHistory = append(m.sessionHistory, entry)
					m.histIndex = -1
					m.output = append(m.output, getPiHelp())
					savePiHistory(getPiHistoryFile(), m.history)
					m.input.SetValue("")
					return m, nil
				}

				// Process query and get output
				result := processPiQuery(m.snapshot, entry)

				m.history = append(m.history, entry)
				m.sessionHistory = append(m.sessionHistory, entry)
				m.histIndex = -1
				m.output = append(m.output, result)
				savePiHistory(getPiHistoryFile(), m.history)
			}
			m.input.SetValue("")
			return m, nil

		case "up":
			if len(m.history) == 0 {
				return m, nil
			}
			if m.histIndex == -1 {
				m.histIndex = len(m.history) - 1
			} else if m.histIndex > 0 {
				m.histIndex--
			}
			m.input.SetValue(m.history[m.histIndex])
			m.input.CursorEnd()
			return m, nil

		case "down":
			if len(m.history) == 0 {
				return m, nil
			}
			if m.histIndex >= 0 && m.histIndex < len(m.history)-1 {
				m.histIndex++
				m.input.SetValue(m.history[m.histIndex])
				m.input.CursorEnd()
			} else {
				m.histIndex = -1
				m.input.SetValue("")
			}
			return m, nil

		case "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m piModel) View() string {
	// Promptex violet style for the prompt
	promptStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	var lines []string

	// Add the initial welcome messages first
	if len(m.output) >= 2 {
		lines = append(lines, m.output[0])
		lines = append(lines, m.output[1])
	}

	// Add each command from THIS SESSION with its corresponding output
	for i := 0; i < len(m.sessionHistory); i++ {
		// Show the command that was entered in this session
		lines = append(lines, promptStyle.Render("> ")+m.sessionHistory[i])

		// Show the corresponding output (accounting for the 2 initial messages)
		if (i + 2) < len(m.output) {
			lines = append(lines, m.output[i+2])
		}
	}

	// Add current prompt and input
	lines = append(lines, promptStyle.Render("> ")+m.input.View())

	return strings.Join(lines, "\n")
}

// getPiHelp returns the help text as a string
func getPiHelp() string {
	return `Query syntax:
  Three query modes supported:

  1. JSON output (queries starting with '.')
     .acme.support                    - All prompts under acme.support as JSON
     .acme.support.triage             - Specific prompt as JSON
     .acme.support.triage.content     - Attribute value as JSON
     .acme.support.triage[1]          - Variant by position
     .acme.support.triage["canary"]   - Variant by version label

  2. List output (queries not starting with '.')
     acme                             - List all prompts under acme
     acme.support.triage              - List a specific prompt
     acme.support.triage.model        - Print an attribute value
     acme.support.triage["canary"]    - List a labeled variant

  3. Function evaluation (queries starting with '/')
     /coalesce(null, "default")       - Evaluate coalesce function
     /length(prompts)                 - Count prompts in the snapshot
     /upper(acme.support.triage.model) - Evaluate against an attribute
     /similarity(a.content, b.content) - Score two prompt bodies

  Attributes:
     id, name, content, description, systemPrompt, model,
     temperature, variables, versionLabel

  Special queries:
     version                          - Export format version
     exported_at                      - Snapshot export timestamp
     count                            - Number of prompts

  Navigation:
     ↑/↓ arrows                       - Navigate command history
     Ctrl+C                           - Exit

  Examples:
     .acme.support.triage             - JSON for one prompt
     /linecount(acme.support.triage.content) - Lines in a prompt body`
}

// getPiHistoryFile returns the path to the pi history file
func getPiHistoryFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pexctl_pi_history"
	}
	return filepath.Join(homeDir, ".pexctl_pi_history")
}

func loadPiHistory(filename string) []string {
	var history []string

	file, err := os.Open(filename)
	if err != nil {
		return history // Return empty history if file doesn't exist
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			history = append(history, line)
		}
	}

	return history
}

func processPiQuery(snapshot map[string]interface{}, query string) string {
	var result strings.Builder

	// Capture fmt.Print output by temporarily redirecting
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Process the query (this will write to our pipe instead of stdout)
	pi.ProcessQuery(snapshot, query)

	// Restore stdout and read what was written
	w.Close()
	os.Stdout = oldStdout

	// Read the captured output
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			result.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	r.Close()

	output := result.String()
	if output == "" {
		return "No results found."
	}
	return strings.TrimSuffix(output, "\n")
}

func runPiInteractiveConsole(snapshot map[string]interface{}) error {
	p := tea.NewProgram(initialPiModel(snapshot))
	_, err := p.Run()
	return err
}

func savePiHistory(filename string, history []string) {
	// Keep only the last 1000 commands
	maxHistory := 1000
	start := 0
	if len(history) > maxHistory {
		start = len(history) - maxHistory
	}

	file, err := os.Create(filename)
	if err != nil {
		return // Silently fail if we can't save history
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for i := start; i < len(history); i++ {
		fmt.Fprintln(writer, history[i])
	}
	writer.Flush()
}

// PiCommandBuilder constructs the cli.Command for "pi" and wires up metadata,
// flags, and the action handler.
func piCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "pi",
		Hidden:    true,
		Usage:     "prompt inspector",
		UsageText: "pexctl pi [RootDir] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "passphrase",
				Aliases: []string{"p"},
				Usage:   "passphrase for encrypted exports",
				Value:   "",
			},
			&cli.StringFlag{
				Name:        "ev",
				Usage:       "export version to query",
				Value:       "0",
				HideDefault: true,
			},
		}, NewGlobalFlags()...),
		Action: piCommandAction,
	}
}
