// Package tasks tracks NZB download jobs and reconciles them against the download queue.
//
// # Core Operations
//
// [Listener.OnDownloadStart] is the single entry point. It registers a job id in the
// [Registry] and makes sure the reconciliation loop is running.
//
// Each tick the loop:
//
//  1. Exits when the registry is empty (the next registration restarts it)
//  2. Fetches the history and queue snapshots from the [QueueClient]
//  3. Diffs them against the registry under its lock and decides which side effects to run
//  4. Spawns those side effects detached and sleeps for the poll interval
//
// A fetch failure is logged and the tick is abandoned; the loop never exits because of it.
//
// # Side Effects
//
// Side effects run on their own goroutine through the [Spawner], each behind a recover
// boundary and a timeout:
//   - completion : calls the job listener, then removes the job unless the process is stopping
//   - failure : reports the error, removes the job, force-deletes the queue entry and its category
//   - status change : updates the display status cached on the task
//   - duplicate check : runs the [DuplicatePolicy], failing the job on a conflict
//   - quota check : runs the [QuotaPolicy], failing the job on a violation and posting a short-lived notice
//
// Every gate (uploaded, duplicate check scheduled, failure dispatched) flips exactly once,
// so repeated ticks reporting the same state never re-run a side effect.
//
// A side effect may run after its job has been removed by another one. A task the
// [TaskLookup] no longer knows is treated as "no longer tracked", not as an error.
//
// # Removal
//
// [Listener.RemoveJob] deletes the history entry and the job's category concurrently,
// falls back to a forced job delete when the history delete did not succeed and always
// evicts the registry entry. It is safe to call more than once for the same id.
package tasks
