package sim

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// assertf panics in simdebug builds and logs at debug level otherwise.
func assertf(cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if debugAssertions {
		panic("sim: " + msg)
	}
	log.Debug("sim assertion failed", "detail", msg)
}
