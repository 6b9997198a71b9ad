// Package services implements the collaborators the job listener talks to.
//
// # SABnzbd
//
// [SABnzbdClient] wraps the SABnzbd JSON API (/api?mode=...). It implements [Downloader],
// which embeds [tasks.QueueClient]. All calls share one token bucket limiter.
//
// # Task Registry
//
// [TaskStore] keeps a [DownloadTask] per followed job, keyed by the nzo id SABnzbd issued.
// A task's Refresh reads its queue slot for the current name and size.
//
// # Job Listeners
//
// [NZBListener] is the owner of one job. It logs outcomes, posts notices through
// the [WebhookNotifier] and drops its task from the store when the job finishes.
//
// # Control API Client
//
// [APIService] talks to the control API of a running watcher (used by the CLI and dashboard)
// and doubles as the webhook transport.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrServiceUnavailable] : the remote could not be reached
//   - [shared.ErrAPIRequest] : the remote refused or failed the request
//   - [shared.ErrTaskNotFound] : no task for the requested id
package services
