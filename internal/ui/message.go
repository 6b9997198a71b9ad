package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgJobsFetched MsgKind = iota
	MsgDetailFetched
	MsgJobTracked
	MsgTick
)

type jobsFetched struct {
	jobs  []models.JobView
	stats *tasks.Stats
	err   error
}

type detailFetched struct {
	detail *models.JobDetail
	err    error
}

type jobTracked struct {
	job *models.JobView
	err error
}

// jobsFetchedMsg is the constructor for [MsgJobsFetched]
func jobsFetchedMsg(jobs []models.JobView, stats *tasks.Stats, err error) Msg {
	return Msg{kind: MsgJobsFetched, data: jobsFetched{jobs, stats, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(detail *models.JobDetail, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailFetched{detail, err}}
}

// jobTrackedMsg is the constructor for [MsgJobTracked]
func jobTrackedMsg(job *models.JobView, err error) Msg {
	return Msg{kind: MsgJobTracked, data: jobTracked{job, err}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(at time.Time) Msg {
	return Msg{kind: MsgTick, data: at}
}
