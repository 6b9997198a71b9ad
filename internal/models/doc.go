// Package models defines the domain types shared by the listener, the queue client and the journal.
//
// The package contains three groups of types:
//
// 1. Queue snapshots: read-only data reported by the download queue each tick
//   - [HistorySlot] : a finished or post-processing job from the history view
//   - [QueueSlot] : an active job from the queue view
//
// 2. Local tracking state
//   - [Status] : the job status vocabulary the listener understands
//   - [Job] : what the listener remembers about a registered job
//
// 3. Journal and notification values
//   - [JobEvent] : a persisted record of a transition
//   - [Control] and [Optional] : an optional interactive control attached to failure notices
//
// 4. Control API bodies
//   - [TrackRequest] : asks a running watcher to follow a download
//   - [JobView], [JobsResponse] and [JobDetail] : what the watcher reports back
package models
