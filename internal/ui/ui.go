package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/tasks"
)

const defaultRefresh = 2 * time.Second

// ViewState represents the current view in the TUI.
type ViewState int

const (
	JobListView ViewState = iota
	JobDetailView
	TrackView
)

// Client is the slice of the control API the dashboard needs.
type Client interface {
	Jobs(ctx context.Context) ([]models.JobView, error)
	Job(ctx context.Context, id string) (*models.JobDetail, error)
	Track(ctx context.Context, req models.TrackRequest) (*models.JobView, error)
	Health(ctx context.Context) (*tasks.Stats, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	client    Client
	interval  time.Duration
	width     int
	height    int
	jobList   list.Model
	eventList list.Model
	input     textinput.Model
	detailID  string
	detail    *models.JobDetail
	stats     *tasks.Stats
	notice    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a dashboard polling client every interval.
func NewModel(ctx context.Context, client Client, interval time.Duration) *Model {
	if interval <= 0 {
		interval = defaultRefresh
	}

	jobs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	jobs.Title = "Tracked Jobs"
	jobs.SetShowHelp(false)

	events := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	events.SetShowHelp(false)
	events.SetFilteringEnabled(false)

	input := textinput.New()
	input.Placeholder = "nzo id or NZB url"
	input.CharLimit = 1024

	return &Model{
		ctx:       ctx,
		view:      JobListView,
		client:    client,
		interval:  interval,
		jobList:   jobs,
		eventList: events,
		input:     input,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init fetches the first job listing and starts the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchJobs(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.jobList.SetSize(msg.Width-4, msg.Height-8)
		m.eventList.SetSize(msg.Width-4, msg.Height-10)
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case JobListView:
			return m.handleJobListKeys(msg)
		case JobDetailView:
			return m.handleDetailKeys(msg)
		case TrackView:
			return m.handleTrackKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTick:
		cmds := []tea.Cmd{m.fetchJobs(), m.tick()}
		if m.view == JobDetailView && m.detailID != "" {
			cmds = append(cmds, m.fetchDetail(m.detailID))
		}
		return m, tea.Batch(cmds...)

	case MsgJobsFetched:
		data := msg.data.(jobsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.stats = data.stats
		items := make([]list.Item, len(data.jobs))
		for i, job := range data.jobs {
			items[i] = jobItem{job: job}
		}
		return m, m.jobList.SetItems(items)

	case MsgDetailFetched:
		data := msg.data.(detailFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.detail = data.detail
		items := make([]list.Item, len(data.detail.Events))
		for i, event := range data.detail.Events {
			items[i] = eventItem{event: *event}
		}
		m.eventList.Title = m.detailTitle()
		m.view = JobDetailView
		return m, m.eventList.SetItems(items)

	case MsgJobTracked:
		data := msg.data.(jobTracked)
		if data.err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("Track failed: %v", data.err))
			return m, nil
		}
		m.notice = styles.ok.Render(fmt.Sprintf("Tracking %s", data.job.ID))
		m.input.Reset()
		m.input.Blur()
		m.view = JobListView
		return m, m.fetchJobs()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderStats())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch m.view {
	case JobListView:
		b.WriteString(m.renderJobList())
	case JobDetailView:
		b.WriteString(m.renderDetail())
	case TrackView:
		b.WriteString(m.renderTrack())
	}
	return b.String()
}

func (m *Model) handleJobListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.jobList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.jobList, cmd = m.jobList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.jobList.SelectedItem().(jobItem); ok {
			m.detailID = item.job.ID
			return m, m.fetchDetail(item.job.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.add):
		m.view = TrackView
		m.notice = ""
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchJobs()
	}

	var cmd tea.Cmd
	m.jobList, cmd = m.jobList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = JobListView
		m.detailID = ""
		m.detail = nil
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchDetail(m.detailID)
	}

	var cmd tea.Cmd
	m.eventList, cmd = m.eventList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Reset()
		m.input.Blur()
		m.view = JobListView
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		return m, m.track(trackRequest(value))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// trackRequest treats http(s) input as an NZB url and anything else as a queue id.
func trackRequest(value string) models.TrackRequest {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return models.TrackRequest{URL: value}
	}
	return models.TrackRequest{ID: value}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case JobListView:
		m.jobList, cmd = m.jobList.Update(msg)
	case JobDetailView:
		m.eventList, cmd = m.eventList.Update(msg)
	case TrackView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) fetchJobs() tea.Cmd {
	return func() tea.Msg {
		jobs, err := m.client.Jobs(m.ctx)
		if err != nil {
			return jobsFetchedMsg(nil, nil, err)
		}
		stats, err := m.client.Health(m.ctx)
		return jobsFetchedMsg(jobs, stats, err)
	}
}

func (m *Model) fetchDetail(id string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.client.Job(m.ctx, id)
		return detailFetchedMsg(detail, err)
	}
}

func (m *Model) track(req models.TrackRequest) tea.Cmd {
	return func() tea.Msg {
		job, err := m.client.Track(m.ctx, req)
		return jobTrackedMsg(job, err)
	}
}

func (m *Model) detailTitle() string {
	if m.detail != nil && m.detail.Job != nil && m.detail.Job.Name != "" {
		return fmt.Sprintf("Journal for '%s'", m.detail.Job.Name)
	}
	return fmt.Sprintf("Journal for %s", m.detailID)
}

func (m *Model) renderStats() string {
	title := styles.title.Render("nzbwatch")
	if m.stats == nil {
		return title + "\n" + styles.help.Render("waiting for watcher...")
	}

	loop := styles.warn.Render("idle")
	if m.stats.Running {
		loop = styles.ok.Render("running")
	}
	return fmt.Sprintf("%s\n%d tracked • loop %s • %d active effects • %d ticks",
		title, m.stats.Tracked, loop, m.stats.ActiveTasks, m.stats.Ticks)
}

func (m *Model) renderJobList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.add, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	if m.notice != "" {
		return fmt.Sprintf("%s\n%s\n\n%s", m.jobList.View(), m.notice, helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.jobList.View(), helpView)
}

func (m *Model) renderDetail() string {
	var status string
	if m.detail != nil && m.detail.Job != nil {
		job := m.detail.Job
		status = fmt.Sprintf("Status: %s", styles.status(job.Status).Render(job.Status.String()))
		if job.Size != "" {
			status += fmt.Sprintf(" • Size: %s", job.Size)
		}
		if job.Category != "" {
			status += fmt.Sprintf(" • Category: %s", job.Category)
		}
	} else {
		status = styles.warn.Render("No longer tracked")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n\n%s", status, m.eventList.View(), helpView)
}

func (m *Model) renderTrack() string {
	title := styles.title.Render("Track a download")
	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "track"))
	helpView := m.help.ShortHelpView([]key.Binding{submit, m.keys.back})

	body := fmt.Sprintf("%s\n%s", title, m.input.View())
	if m.notice != "" {
		body += "\n\n" + m.notice
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}
