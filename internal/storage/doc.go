// Package storage provides the process-wide key-value store that backs the
// persisted configuration, language preference and history records. The
// store is injected into the other packages so they can be tested against
// the in-memory implementation.
package storage
