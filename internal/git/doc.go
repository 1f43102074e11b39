// Package git drives the external git and git-lfs executables: argv assembly,
// file-list batching, output capture and return-code discipline, plus typed
// helpers per verb and the parsers that turn porcelain output into state.
package git
