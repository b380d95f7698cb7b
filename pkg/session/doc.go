/*
Package session implements document persistence orchestration.

A Manager loads documents through the codec (migrating stale versions),
saves them back, and serializes access per document id with reference
counted local locks and an optional distributed lock, so several editors
and replicas can share one DocumentStore. An Autosaver takes committed
snapshots from a store hook and persists them on its own goroutine without
blocking the editor.
*/
package session
