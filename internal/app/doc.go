// Package app wires the experiment pipeline together: it loads the
// configuration, compiles the session and drives it from the console, or
// merges the response tables of finished sessions. It is decoupled from any
// specific entrypoint like a CLI.
package app
