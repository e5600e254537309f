// Package tasks queues background work and runs it on a pool of workers.
//
// A Broker carries tasks from the API process to workers, and a
// ResultBackend records what became of each one. Both have a Redis
// implementation for deployments and an in-memory one for tests and for
// running the worker inside the server process. Tasks run at most once: a
// task that fails or panics is recorded as FAILURE and never requeued.
package tasks
