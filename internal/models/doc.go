// Package models lists the chat models offered by the configured
// endpoint, for picking a model in the settings.
package models
