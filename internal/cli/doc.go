// Package cli provides command-line interface setup and configuration
// for quicktrans. It handles flag parsing, command creation and the
// viper configuration layer; the commands delegate to a Runner.
package cli
