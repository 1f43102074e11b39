package cli

import (
	"github.com/AlecAivazis/survey/v2"

	"lockstep.dev/lockstep/internal/host"
	"lockstep.dev/lockstep/internal/output"
)

// terminalHost adapts the host capability surface to an interactive
// terminal: notifications go through the logger, confirmations through a
// survey prompt, and reloads are a no-op since the CLI holds no files open.
type terminalHost struct {
	splog *output.Splog
}

func newTerminalHost(splog *output.Splog) host.Host {
	return &terminalHost{splog: splog}
}

func (h *terminalHost) Reload([]string) {}

func (h *terminalHost) Notify(level host.Level, text string) {
	switch level {
	case host.LevelError:
		h.splog.Error("%s", text)
	case host.LevelWarning:
		h.splog.Warn("%s", text)
	default:
		h.splog.Info("%s", text)
	}
}

func (h *terminalHost) Confirm(title, body string) bool {
	if !output.IsTerminal() {
		return false
	}
	if body != "" {
		h.splog.Info("%s", body)
	}
	confirmed := false
	if err := survey.AskOne(&survey.Confirm{Message: title}, &confirmed); err != nil {
		return false
	}
	return confirmed
}
