package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/nzbwatch/internal/models"
)

var (
	_ list.Item = jobItem{}
	_ list.Item = eventItem{}
)

// jobItem wraps [models.JobView] to implement [list.Item].
type jobItem struct {
	job models.JobView
}

func (i jobItem) FilterValue() string { return i.job.Name + " " + i.job.ID }
func (i jobItem) Title() string {
	if i.job.Name == "" {
		return i.job.ID
	}
	return i.job.Name
}

func (i jobItem) Description() string {
	parts := []string{styles.status(i.job.Status).Render(i.job.Status.String())}
	if i.job.Size != "" {
		parts = append(parts, i.job.Size)
	}
	if i.job.Name != "" {
		parts = append(parts, i.job.ID)
	}
	switch {
	case i.job.FailureDispatched:
		parts = append(parts, "failure handled")
	case i.job.Uploaded:
		parts = append(parts, "completion handled")
	}
	return strings.Join(parts, " • ")
}

// eventItem wraps [models.JobEvent] to implement [list.Item].
type eventItem struct {
	event models.JobEvent
}

func (i eventItem) FilterValue() string { return string(i.event.Kind) }
func (i eventItem) Title() string {
	if i.event.Status != "" {
		return fmt.Sprintf("%s (%s)", i.event.Kind, i.event.Status)
	}
	return string(i.event.Kind)
}

func (i eventItem) Description() string {
	desc := i.event.CreatedAt.Local().Format("2006-01-02 15:04:05")
	if i.event.Message != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.event.Message)
	}
	return desc
}
