// Package history keeps the bounded, newest-first log of completed
// translations and persists it as a single record in the key-value store.
package history
