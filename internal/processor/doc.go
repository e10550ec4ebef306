// Package processor contains the application logic behind the commands.
// It opens the state database, builds the effective settings from the
// saved configuration and the command line, and drives the translation
// controller for single texts, batch files and the GUI.
package processor
