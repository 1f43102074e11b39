// Package host abstracts the application embedding the version-control
// integration: it may need files reloaded after they change on disk, and it
// can surface notifications and confirmations to the user.
package host

// Level classifies a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Host is implemented by the embedding application.
type Host interface {
	// Reload asks the host to re-read files whose on-disk content changed
	// underneath it, e.g. after a revert or a rebase.
	Reload(paths []string)

	// Notify surfaces a message to the user.
	Notify(level Level, text string)

	// Confirm asks the user a yes/no question, returning true on yes.
	Confirm(title, body string) bool
}

// Noop is a Host that ignores everything and answers yes to every question.
type Noop struct{}

func (Noop) Reload([]string) {}

func (Noop) Notify(Level, string) {}

func (Noop) Confirm(string, string) bool { return true }
