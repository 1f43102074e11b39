// Package runtime provides the execution context for lockstep commands.
//
// It encapsulates shared dependencies needed by commands: the provider
// instance, logger, settings, and repository root path.
package runtime
