package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// handleEditorKeys handles keyboard input in the editor view.
func (m Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg.String() {
	case "ctrl+s":
		if !m.isSubmitting {
			return m, tea.Batch(
				func() tea.Msg { return submitStartMsg{} },
				m.submitJob(),
			)
		}

	case "f":
		m.state = ViewFilePicker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(nil)
		return m, cmd

	case "ctrl+l":
		m.language = m.cycleLanguage()
		m.statusMsg = "language: " + string(m.language)
		return m, nil

	case "ctrl+k":
		m.editor.Reset()
		m.testsInput.Reset()
		m.statusMsg = "editor cleared"
		return m, nil

	case "ctrl+t":
		if m.editor.Focused() {
			m.editor.Blur()
			m.testsInput.Focus()
		} else {
			m.testsInput.Blur()
			m.editor.Focus()
		}
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

// handleHistoryKeys handles keyboard input in the history view.
func (m Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.historyIndex > 0 {
			m.historyIndex--
		}

	case "down", "j":
		if m.historyIndex < len(m.jobHistory)-1 {
			m.historyIndex++
		}

	case "enter":
		if len(m.jobHistory) > 0 {
			m.currentJob = &m.jobHistory[m.historyIndex]
			m.state = ViewJobDetail
			return m, m.pollJob(m.currentJob.ID)
		}

	case "d":
		if len(m.jobHistory) > 0 {
			m.jobHistory = append(m.jobHistory[:m.historyIndex], m.jobHistory[m.historyIndex+1:]...)
			if m.historyIndex >= len(m.jobHistory) && m.historyIndex > 0 {
				m.historyIndex--
			}
			m.statusMsg = "job removed from history"
		}

	case "c":
		m.jobHistory = []JobInfo{}
		m.historyIndex = 0
		m.statusMsg = "history cleared"
	}

	return m, nil
}

// handleJobDetailKeys handles keyboard input in the job detail view.
func (m Model) handleJobDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.currentJob != nil {
			return m, m.pollJob(m.currentJob.ID)
		}

	case "backspace":
		m.state = ViewHistory
	}

	return m, nil
}

// handleWorkersKeys handles keyboard input in the cluster workers view.
func (m Model) handleWorkersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, m.fetchWorkers()
	}
	return m, nil
}

// handleFilePickerKeys handles keyboard input in the file picker view.
func (m Model) handleFilePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		return m, m.loadFile(path)
	}
	if didSelect, _ := m.filePicker.DidSelectDisabledFile(msg); didSelect {
		m.errorMsg = "file type not supported"
		m.state = ViewEditor
		return m, nil
	}
	return m, nil
}

// handleHelpKeys handles keyboard input in the help view.
func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.state = ViewEditor
	return m, nil
}

// cycleLanguage cycles to the next available language.
func (m Model) cycleLanguage() models.Language {
	languages := []models.Language{
		models.LanguageCpp,
		models.LanguageC,
		models.LanguageGo,
		models.LanguageRust,
		models.LanguageJava,
		models.LanguagePython,
		models.LanguageJavaScript,
		models.LanguageRuby,
	}

	currentIndex := 0
	for i, lang := range languages {
		if lang == m.language {
			currentIndex = i
			break
		}
	}

	nextIndex := (currentIndex + 1) % len(languages)
	return languages[nextIndex]
}
