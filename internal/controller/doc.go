// Package controller runs translations. It owns the single in-flight
// request, supersedes it when a new one starts, streams the response into
// a render.View and records completed translations in the history.
package controller
