// Package batchcloser collects the io.Closers of a process, such as the
// sentry flusher, the admin server and the mount watcher, and closes them all
// at once in reverse order.
package batchcloser
