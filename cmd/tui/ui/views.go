package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// viewEditor renders the code + test case editor view.
func (m Model) viewEditor() string {
	var b strings.Builder

	title := titleStyle.Render("judgecluster - submit")
	b.WriteString(title + "\n\n")

	langInfo := fmt.Sprintf("Language: %s (ctrl+l to change)", m.language)
	b.WriteString(mutedStyle.Render(langInfo) + "\n\n")

	editorBox := activeEditorStyle.Render(m.editor.View())
	b.WriteString(editorBox + "\n\n")

	b.WriteString(mutedStyle.Render("Test cases (id|input|expected_output, one per line):") + "\n")
	testsBox := boxStyle.Render(m.testsInput.View())
	b.WriteString(testsBox + "\n\n")

	submitBtn := activeButtonStyle.Render(" Submit (ctrl+s) ")
	fileBtn := inactiveButtonStyle.Render(" Load File (f) ")
	historyBtn := inactiveButtonStyle.Render(" History (Tab) ")
	helpBtn := inactiveButtonStyle.Render(" Help (?) ")

	buttons := lipgloss.JoinHorizontal(lipgloss.Left, submitBtn, " ", fileBtn, " ", historyBtn, " ", helpBtn)
	b.WriteString(buttons + "\n")

	return b.String()
}

// viewHistory renders the job history view.
func (m Model) viewHistory() string {
	var b strings.Builder

	title := titleStyle.Render("Job History")
	b.WriteString(title + "\n\n")

	if len(m.jobHistory) == 0 {
		b.WriteString(mutedStyle.Render("No jobs yet. Press Tab to go to the cluster view.\n"))
		return b.String()
	}

	for i, job := range m.jobHistory {
		var itemStyle lipgloss.Style
		var prefix string

		if i == m.historyIndex {
			itemStyle = selectedItemStyle
			prefix = "▶ "
		} else {
			itemStyle = normalItemStyle
			prefix = "  "
		}

		statusIcon, statusColor := phaseGlyph(job.Status)

		timestamp := job.CreatedAt.Format("15:04:05")
		jobInfo := fmt.Sprintf("%s%s %s | %s | %s",
			prefix,
			statusColor.Render(statusIcon),
			timestamp,
			job.Language,
			truncate(job.ID, 8),
		)

		b.WriteString(itemStyle.Render(jobInfo) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓: navigate  Enter: view details  Tab: cluster view  q: quit\n"))

	return b.String()
}

// viewJobDetail renders one job's phase and per-test-case results.
func (m Model) viewJobDetail() string {
	if m.currentJob == nil {
		return mutedStyle.Render("No job selected")
	}

	var b strings.Builder
	job := m.currentJob

	title := titleStyle.Render(fmt.Sprintf("Job %s", truncate(job.ID, 12)))
	b.WriteString(title + "\n\n")

	infoBox := boxStyle.Render(fmt.Sprintf(
		"State: %s\nLanguage: %s\nSubmitted: %s",
		colorizePhase(job.Status),
		job.Language,
		job.CreatedAt.Format("2006-01-02 15:04:05"),
	))
	b.WriteString(infoBox + "\n\n")

	if job.Status == nil {
		processing := warningStyle.Render(fmt.Sprintf("%s fetching status...", m.spinner.View()))
		b.WriteString(processing + "\n\n")
		b.WriteString(helpStyle.Render("Esc/q: back to editor\n"))
		return b.String()
	}

	if job.Status.Error != "" {
		b.WriteString(errorStyle.Render("Error: "+job.Status.Error) + "\n\n")
	}

	if job.Status.CompilerOutput != "" {
		compBox := boxStyle.Width(min(m.width-10, 100)).Render(
			fmt.Sprintf("COMPILER OUTPUT:\n%s", truncate(job.Status.CompilerOutput, 500)),
		)
		b.WriteString(compBox + "\n\n")
	}

	if job.Status.State != models.PhaseCompleted {
		processing := warningStyle.Render(fmt.Sprintf("%s %s...", m.spinner.View(), job.Status.State))
		b.WriteString(processing + "\n\n")
	}

	for _, r := range job.Status.Results {
		icon, style := verdictGlyph(r.Status)
		line := fmt.Sprintf("%s %s  %s  %s",
			style.Render(icon),
			r.TestID,
			formatDuration(r.TimeMs),
			r.Status,
		)
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r: refresh  Backspace: history  Esc/q: editor\n"))

	return b.String()
}

// viewWorkers renders the live cluster dashboard.
func (m Model) viewWorkers() string {
	var b strings.Builder

	title := titleStyle.Render("Cluster Workers")
	b.WriteString(title + "\n\n")

	if len(m.workers) == 0 {
		b.WriteString(mutedStyle.Render("No workers connected.\n"))
		b.WriteString(helpStyle.Render("\nr: refresh  Tab: back to editor  q: quit\n"))
		return b.String()
	}

	for _, w := range m.workers {
		line := fmt.Sprintf(
			"%s  cpu=%.0f%%  ram=%dMB/%dMB  active=%d  tags=%s",
			truncate(w.ID, 12),
			w.CPULoadPercent,
			w.RAMUsageMB,
			w.TotalRAMMB,
			w.ActiveTasks,
			strings.Join(w.Tags, ","),
		)
		b.WriteString(boxStyle.Render(line) + "\n")
	}

	b.WriteString(helpStyle.Render("\nr: refresh  Tab: back to editor  q: quit\n"))
	return b.String()
}

// viewFilePicker renders the file picker view.
func (m Model) viewFilePicker() string {
	var b strings.Builder

	title := titleStyle.Render("Select a File")
	b.WriteString(title + "\n\n")
	b.WriteString(m.filePicker.View() + "\n\n")
	b.WriteString(helpStyle.Render("↑/↓: navigate  Enter: select  Esc: cancel\n"))

	return b.String()
}

// viewHelp renders the help screen.
func (m Model) viewHelp() string {
	var b strings.Builder

	title := titleStyle.Render("Help - Keyboard Shortcuts")
	b.WriteString(title + "\n\n")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"ctrl+s", "Submit job (in editor)"},
		{"ctrl+t", "Toggle focus between source and test cases"},
		{"f", "Open file picker to load source from file"},
		{"ctrl+l", "Change programming language"},
		{"ctrl+k", "Clear editor"},
		{"Tab", "Cycle editor -> history -> cluster workers"},
		{"↑/↓", "Navigate in history or file picker"},
		{"Enter", "View job details (in history)"},
		{"r", "Refresh job status / worker list"},
		{"?", "Show this help screen"},
		{"Esc", "Go back to editor"},
		{"q / Ctrl+C", "Quit (editor, history, workers); elsewhere back to editor"},
	}

	for _, sc := range shortcuts {
		line := fmt.Sprintf("%s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-12s", sc.key)),
			sc.desc,
		)
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	features := titleStyle.Render("Features")
	b.WriteString(features + "\n\n")

	featureList := []string{
		"• Write or paste code directly in the editor",
		"• Load code from local files",
		"• Submit compile-and-run jobs with test cases to the cluster",
		"• Watch a job move through compiling -> executing -> completed",
		"• Browse job history and per-test-case verdicts",
		"• Monitor connected workers' load in real time",
	}

	for _, feat := range featureList {
		b.WriteString(mutedStyle.Render(feat) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Press Esc or ? to close help\n"))

	return b.String()
}

// Helper functions.

func phaseGlyph(status *models.StatusResponse) (string, lipgloss.Style) {
	if status == nil {
		return "○", mutedStyle
	}
	switch status.State {
	case models.PhaseCompleted:
		if status.Error != "" {
			return "✗", errorStyle
		}
		return "✓", successStyle
	case models.PhaseExecuting:
		return "●", warningStyle
	default:
		return "○", mutedStyle
	}
}

func colorizePhase(status *models.StatusResponse) string {
	if status == nil {
		return mutedStyle.Render("pending")
	}
	switch status.State {
	case models.PhaseCompleted:
		if status.Error != "" {
			return errorStyle.Render(string(status.State))
		}
		return successStyle.Render(string(status.State))
	case models.PhaseExecuting:
		return warningStyle.Render(string(status.State))
	default:
		return mutedStyle.Render(string(status.State))
	}
}

func verdictGlyph(v models.Verdict) (string, lipgloss.Style) {
	switch v {
	case models.VerdictPassed:
		return "✓", successStyle
	case models.VerdictTLE, models.VerdictMLE:
		return "⧖", warningStyle
	default:
		return "✗", errorStyle
	}
}
