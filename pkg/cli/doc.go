// Package cli provides the command-line interface for wsfeed.
//
// Commands:
//   - check: Decide whether URLs are admitted by the allow list
//   - watch: Connect to an allowed feed and print its messages
//   - validate: Load the configuration and list the effective allow list
//   - init: Write a starter .wsfeed.yaml
//   - version: Show wsfeed version
//
// Configuration is read from the global file, a local .wsfeed.yaml, WSFEED_*
// environment variables and flags, in increasing order of precedence.
package cli
