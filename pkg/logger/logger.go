package logger

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/Gobusters/ectologger"
)

// New returns a logger that writes each entry as a JSON line to stdout.
func New(prettyLogs bool) ectologger.Logger {
	var mu sync.Mutex
	encoder := json.NewEncoder(os.Stdout)
	if prettyLogs {
		encoder.SetIndent("", "  ")
	}

	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = encoder.Encode(msg)
	})
}
