// Package server provides HTTP routing, middleware, and the control API of a running watcher.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses chi internally, which provides {param} path segments and method filtering.
//
// # Control API
//
// [JobsHandler] exposes the listener to other processes:
//   - GET /jobs : every tracked job with what the task registry knows about it
//   - POST /jobs : follow a job by nzo id, or enqueue an NZB by url and follow it
//   - GET /jobs/{id} : one job and its journal entries
//   - GET /health : listener stats
//
// Jobs enqueued by url get their own category, which is removed again when the job finishes.
// Jobs tracked by id only get a category removed if the caller names one.
package server
