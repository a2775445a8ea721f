package graphic

import (
	"os"
	"strings"
)

// normalizeTerminal works around terminal settings termbox cannot cope with.
// Under tmux a TERMINFO pointing at the outer terminal makes termbox fail to
// init, so it is unset for the lifetime of the display.
//
// The returned function restores the original environment.
func normalizeTerminal() (func(), error) {
	prevTERMINFO, hadTERMINFO := os.LookupEnv("TERMINFO")

	if strings.HasPrefix(os.Getenv("TERM"), "tmux") && hadTERMINFO {
		if err := os.Unsetenv("TERMINFO"); err != nil {
			return nil, err
		}
	}

	restore := func() {
		if hadTERMINFO {
			os.Setenv("TERMINFO", prevTERMINFO)
		}
	}

	return restore, nil
}
