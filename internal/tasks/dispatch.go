package tasks

import (
	"strings"

	"github.com/desertthunder/nzbwatch/internal/models"
)

// Action is what a history status asks the listener to do.
type Action int

const (
	ActionIgnore Action = iota
	ActionComplete
	ActionFail
	ActionStatusChange
)

func (a Action) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionFail:
		return "fail"
	case ActionStatusChange:
		return "status_change"
	default:
		return "ignore"
	}
}

// Classify maps a history status onto an [Action].
func Classify(status models.Status) Action {
	switch {
	case status == models.StatusCompleted:
		return ActionComplete
	case status == models.StatusFailed:
		return ActionFail
	case status.IsPostProcessing():
		return ActionStatusChange
	default:
		return ActionIgnore
	}
}

type effectKind int

const (
	effectComplete effectKind = iota
	effectFail
	effectStatus
	effectDuplicateCheck
	effectQuotaCheck
)

func (k effectKind) String() string {
	switch k {
	case effectComplete:
		return "complete"
	case effectFail:
		return "fail"
	case effectStatus:
		return "status"
	case effectDuplicateCheck:
		return "duplicate_check"
	case effectQuotaCheck:
		return "quota_check"
	default:
		return ""
	}
}

// effect is a side effect chosen by a tick, spawned after the diff.
type effect struct {
	kind    effectKind
	jobID   string
	status  models.Status
	message string
}

// isPlaceholder reports whether filename is the transient name the queue shows while it is still fetching the NZB.
func isPlaceholder(filename, prefix string) bool {
	return prefix != "" && strings.HasPrefix(filename, prefix)
}

// reconcile diffs one tick's snapshots against the registry, flips the gates of every job
// that qualifies and returns the side effects to spawn, in snapshot order.
//
// History is authoritative for terminal states. Queue slots only schedule the duplicate
// and quota checks and never touch the stored status.
func (r *Registry) reconcile(history []models.HistorySlot, queue []models.QueueSlot, placeholderPrefix string) []effect {
	var effects []effect

	r.withLock(func(jobs map[string]*models.Job) {
		for _, slot := range history {
			job, ok := jobs[slot.ID]
			if !ok {
				continue
			}
			status, known := models.ParseStatus(slot.Status)
			if !known {
				continue
			}

			switch Classify(status) {
			case ActionComplete:
				if job.Uploaded || job.FailureDispatched || job.Status.IsTerminal() {
					continue
				}
				job.Uploaded = true
				job.Status = models.StatusCompleted
				effects = append(effects, effect{kind: effectComplete, jobID: slot.ID, status: status})
			case ActionFail:
				if job.FailureDispatched {
					continue
				}
				job.FailureDispatched = true
				job.Status = models.StatusFailed
				effects = append(effects, effect{kind: effectFail, jobID: slot.ID, status: status, message: slot.FailMessage})
			case ActionStatusChange:
				if job.Status.IsTerminal() || job.Status == status {
					continue
				}
				job.Status = status
				effects = append(effects, effect{kind: effectStatus, jobID: slot.ID, status: status})
			}
		}

		for _, slot := range queue {
			job, ok := jobs[slot.ID]
			if !ok {
				continue
			}
			if slot.Status != string(models.StatusDownloading) || job.StopDupCheck || job.Status.IsTerminal() {
				continue
			}
			if isPlaceholder(slot.Filename, placeholderPrefix) {
				continue
			}
			job.StopDupCheck = true
			effects = append(effects,
				effect{kind: effectDuplicateCheck, jobID: slot.ID},
				effect{kind: effectQuotaCheck, jobID: slot.ID},
			)
		}
	})

	return effects
}
