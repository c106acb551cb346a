// Package api exposes the task list over HTTP: the JSON API under /api/tasks,
// the index page served to browsers, a health probe and the Prometheus
// metrics endpoint. Every request borrows a store connection for its own
// duration through the task service.
package api
