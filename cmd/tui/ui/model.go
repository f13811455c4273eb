package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/judgecluster/judgecluster/cmd/tui/client"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// ViewState represents the current view.
type ViewState int

const (
	ViewEditor ViewState = iota
	ViewHistory
	ViewJobDetail
	ViewWorkers
	ViewFilePicker
	ViewHelp
)

// JobInfo combines job metadata with its last known status.
type JobInfo struct {
	ID        string
	Language  models.Language
	Status    *models.StatusResponse
	CreatedAt time.Time
}

// Model is the main TUI model.
type Model struct {
	client *client.Client
	apiURL string

	state  ViewState
	width  int
	height int

	editor     textarea.Model
	testsInput textarea.Model
	spinner    spinner.Model
	filePicker filepicker.Model

	language models.Language
	workers  []models.WorkerInfo

	currentJob   *JobInfo
	jobHistory   []JobInfo
	historyIndex int
	isSubmitting bool

	statusMsg string
	errorMsg  string
}

// NewModel creates a new TUI model pointed at a master's HTTP API.
func NewModel(apiURL string) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter your code here or press 'f' to load from file..."
	ta.Focus()
	ta.CharLimit = 1024 * 1024
	ta.SetWidth(80)
	ta.SetHeight(16)

	tests := textarea.New()
	tests.Placeholder = "id|input|expected_output (one test case per line)"
	tests.CharLimit = 64 * 1024
	tests.SetWidth(80)
	tests.SetHeight(5)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	fp := filepicker.New()
	fp.AllowedTypes = []string{".cpp", ".cc", ".cxx", ".c++", ".c", ".go", ".rs", ".py", ".js", ".rb", ".java"}
	fp.Height = 15

	return Model{
		client:       client.NewClient(apiURL),
		apiURL:       apiURL,
		state:        ViewEditor,
		editor:       ta,
		testsInput:   tests,
		spinner:      sp,
		filePicker:   fp,
		language:     models.LanguageCpp,
		jobHistory:   []JobInfo{},
		historyIndex: 0,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.checkHealth(),
		m.fetchWorkers(),
	)
}

// Messages.
type (
	healthCheckMsg struct{ err error }

	workersMsg struct {
		workers []models.WorkerInfo
		err     error
	}

	submitStartMsg struct{}

	submitResultMsg struct {
		resp *models.SubmitResponse
		err  error
	}

	jobUpdateMsg struct {
		jobID  string
		status *models.StatusResponse
		err    error
	}

	fileSelectedMsg struct {
		path    string
		content string
		err     error
	}
)

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == ViewEditor || m.state == ViewHistory || m.state == ViewWorkers {
				return m, tea.Quit
			}
			m.state = ViewEditor
			m.errorMsg = ""
			return m, nil

		case "esc":
			if m.state != ViewEditor {
				m.state = ViewEditor
				m.errorMsg = ""
			}
			return m, nil

		case "?":
			if m.state == ViewHelp {
				m.state = ViewEditor
			} else {
				m.state = ViewHelp
			}
			return m, nil

		case "tab":
			switch m.state {
			case ViewEditor:
				m.state = ViewHistory
			case ViewHistory:
				m.state = ViewWorkers
				return m, m.fetchWorkers()
			case ViewWorkers:
				m.state = ViewEditor
			}
			return m, nil
		}

		switch m.state {
		case ViewEditor:
			return m.handleEditorKeys(msg)
		case ViewHistory:
			return m.handleHistoryKeys(msg)
		case ViewJobDetail:
			return m.handleJobDetailKeys(msg)
		case ViewWorkers:
			return m.handleWorkersKeys(msg)
		case ViewFilePicker:
			return m.handleFilePickerKeys(msg)
		case ViewHelp:
			return m.handleHelpKeys(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(min(msg.Width-10, 100))
		m.editor.SetHeight(min(msg.Height-20, 18))
		m.testsInput.SetWidth(min(msg.Width-10, 100))

	case healthCheckMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("master unreachable: %v", msg.err)
		} else {
			m.statusMsg = "connected to master"
		}

	case workersMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("failed to fetch workers: %v", msg.err)
		} else {
			m.workers = msg.workers
		}

	case submitStartMsg:
		m.isSubmitting = true
		m.statusMsg = "submitting..."
		m.errorMsg = ""

	case submitResultMsg:
		m.isSubmitting = false
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("submit failed: %v", msg.err)
		} else {
			jobInfo := &JobInfo{
				ID:        msg.resp.JobID,
				Language:  m.language,
				CreatedAt: time.Now(),
			}
			m.currentJob = jobInfo
			m.jobHistory = append([]JobInfo{*jobInfo}, m.jobHistory...)
			m.state = ViewJobDetail
			return m, m.pollJob(msg.resp.JobID)
		}

	case jobUpdateMsg:
		if msg.err == nil && msg.status != nil {
			if m.currentJob != nil && m.currentJob.ID == msg.jobID {
				m.currentJob.Status = msg.status
			}
			for i, job := range m.jobHistory {
				if job.ID == msg.jobID {
					m.jobHistory[i].Status = msg.status
					break
				}
			}
			if msg.status.State != models.PhaseCompleted {
				return m, m.pollJob(msg.jobID)
			}
		}

	case fileSelectedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("failed to load file: %v", msg.err)
		} else {
			m.editor.SetValue(msg.content)
			m.statusMsg = "loaded file: " + msg.path
		}
		m.state = ViewEditor

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch m.state {
	case ViewEditor:
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
		m.testsInput, cmd = m.testsInput.Update(msg)
		cmds = append(cmds, cmd)
	case ViewFilePicker:
		m.filePicker, cmd = m.filePicker.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var content string
	switch m.state {
	case ViewEditor:
		content = m.viewEditor()
	case ViewHistory:
		content = m.viewHistory()
	case ViewJobDetail:
		content = m.viewJobDetail()
	case ViewWorkers:
		content = m.viewWorkers()
	case ViewFilePicker:
		content = m.viewFilePicker()
	case ViewHelp:
		content = m.viewHelp()
	}

	statusBar := m.renderStatusBar()
	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

// Helper commands.

func (m Model) checkHealth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthCheckMsg{err: m.client.HealthCheck(ctx)}
	}
}

func (m Model) fetchWorkers() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		resp, err := m.client.GetWorkers(ctx)
		if err != nil {
			return workersMsg{err: err}
		}
		return workersMsg{workers: resp.Workers}
	}
}

func (m Model) submitJob() tea.Cmd {
	code := m.editor.Value()
	lang := m.language
	testCases := parseTestCases(m.testsInput.Value())

	return func() tea.Msg {
		if len(testCases) == 0 {
			return submitResultMsg{err: fmt.Errorf("at least one test case is required (id|input|expected_output)")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req := models.SubmissionRequest{
			Language:   lang,
			SourceCode: code,
			TestCases:  testCases,
		}
		req.ApplyDefaults()

		resp, err := m.client.SubmitJob(ctx, req)
		return submitResultMsg{resp: resp, err: err}
	}
}

// parseTestCases reads "id|input|expected_output" lines from the tests
// textarea, skipping blank lines.
func parseTestCases(raw string) []models.TestCase {
	var cases []models.TestCase
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		tc := models.TestCase{ID: parts[0]}
		if len(parts) > 1 {
			tc.Input = parts[1]
		}
		if len(parts) > 2 {
			tc.ExpectedOutput = parts[2]
		}
		cases = append(cases, tc)
	}
	return cases
}

func (m Model) pollJob(jobID string) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(500 * time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		status, err := m.client.GetStatus(ctx, jobID)
		return jobUpdateMsg{jobID: jobID, status: status, err: err}
	}
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		content, err := os.ReadFile(path)
		if err != nil {
			return fileSelectedMsg{path: path, err: err}
		}
		return fileSelectedMsg{path: path, content: string(content)}
	}
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" master: %s ", m.apiURL)

	var right string
	if m.errorMsg != "" {
		right = fmt.Sprintf(" ERROR: %s ", m.errorMsg)
		bar := statusBarErrorStyle.Render(left) + statusBarErrorStyle.Render(right)
		return statusBarErrorStyle.Width(m.width).Render(bar)
	} else if m.isSubmitting {
		right = fmt.Sprintf(" %s submitting... ", m.spinner.View())
		bar := statusBarStyle.Render(left) + statusBarStyle.Render(right)
		return statusBarStyle.Width(m.width).Render(bar)
	} else if m.statusMsg != "" {
		right = fmt.Sprintf(" %s ", m.statusMsg)
		bar := statusBarSuccessStyle.Render(left) + statusBarSuccessStyle.Render(right)
		return statusBarSuccessStyle.Width(m.width).Render(bar)
	}

	right = " ready "
	bar := statusBarStyle.Render(left) + statusBarStyle.Render(right)
	return statusBarStyle.Width(m.width).Render(bar)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
