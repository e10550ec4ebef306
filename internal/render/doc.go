// Package render is the presentation side of a translation: renderers turn
// raw or partial markdown into display markup, and a View receives that
// markup together with inline errors, notifications and the busy state.
package render
