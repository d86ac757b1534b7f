package wizard

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mrsinham/pet2nifti/internal/pipeline"
)

// JobDoneMsg reports one finished batch job.
type JobDoneMsg struct {
	Completed int
	Total     int
	Source    string
	Err       error
}

// BatchDoneMsg is sent once every job has finished.
type BatchDoneMsg struct{}

var (
	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63"))

	progressBarEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	progressPercentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)
)

// BatchModel shows the progress of a batch run.
type BatchModel struct {
	completed int
	total     int
	failed    int
	last      string
	lastErr   error
	startTime time.Time
	width     int
	detached  bool
	done      bool
}

// NewBatchModel creates a progress view for total jobs.
func NewBatchModel(total int) *BatchModel {
	return &BatchModel{total: total, startTime: time.Now()}
}

// Init implements tea.Model.
func (m *BatchModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.detached = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case JobDoneMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		m.last = msg.Source
		m.lastErr = msg.Err
		if msg.Err != nil {
			m.failed++
		}
	case BatchDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *BatchModel) View() string {
	if m.detached {
		return hintStyle.Render("Progress hidden; running conversions will still finish.") + "\n"
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.completed) / float64(m.total) * 100
	}

	barWidth := 40
	if m.width > 60 {
		barWidth = min(m.width/2, 60)
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Converting PET data..."))
	sb.WriteString("\n")
	sb.WriteString(renderProgressBar(percent, barWidth))
	sb.WriteString(" ")
	sb.WriteString(progressPercentStyle.Render(fmt.Sprintf("%d%%", int(percent))))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Job %d/%d", m.completed, m.total)))
	if m.failed > 0 {
		sb.WriteString(" ")
		sb.WriteString(failureStyle.Render(fmt.Sprintf("(%d failed)", m.failed)))
	}
	if m.last != "" {
		mark := successStyle.Render("✓")
		if m.lastErr != nil {
			mark = failureStyle.Render("✗")
		}
		sb.WriteString("\n")
		sb.WriteString(mark + " " + labelStyle.Render(m.last))
	}
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("Elapsed: %.1fs", time.Since(m.startTime).Seconds())))
	if !m.done {
		sb.WriteString("\n\n")
		sb.WriteString(hintStyle.Render("Press Ctrl+C to hide progress"))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Completed returns how many jobs have finished.
func (m *BatchModel) Completed() int {
	return m.completed
}

// Failed returns how many finished jobs failed.
func (m *BatchModel) Failed() int {
	return m.failed
}

func renderProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := progressBarStyle.Render("[" + strings.Repeat("█", filled))
	bar += progressBarEmptyStyle.Render(strings.Repeat("░", width-filled) + "]")
	return bar
}

// BatchRunner runs the jobs, reporting each completion through progress.
type BatchRunner func(progress func(completed, total int, r pipeline.BatchResult)) []pipeline.BatchResult

// RunBatchProgress runs the batch while drawing a live progress view.
// Hiding the view does not stop the jobs; the results are always returned
// once the batch has finished.
func RunBatchProgress(total int, run BatchRunner) ([]pipeline.BatchResult, error) {
	prog := tea.NewProgram(NewBatchModel(total))

	done := make(chan []pipeline.BatchResult, 1)
	go func() {
		results := run(func(completed, total int, r pipeline.BatchResult) {
			prog.Send(JobDoneMsg{Completed: completed, Total: total, Source: r.Options.SourceData, Err: r.Err})
		})
		prog.Send(BatchDoneMsg{})
		done <- results
	}()

	_, err := prog.Run()
	results := <-done
	if err != nil {
		return results, fmt.Errorf("running progress view: %w", err)
	}
	return results, nil
}
