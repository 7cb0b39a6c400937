package elog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// pmsgHook appends a timestamped breadcrumb line to /dev/pmsg0 for
// every Error-and-above entry, mirroring elog.c's log_pmsg_breadcrumb:
// opened once, lazily, on first use; a failure to open is remembered
// so every subsequent entry doesn't retry the open(2) call.
type pmsgHook struct {
	path string

	once    sync.Once
	file    *os.File
	openErr error
}

func newPmsgHook(path string) *pmsgHook {
	return &pmsgHook{path: path}
}

func (h *pmsgHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel}
}

func (h *pmsgHook) Fire(e *logrus.Entry) error {
	h.once.Do(func() {
		h.file, h.openErr = os.OpenFile(h.path, os.O_WRONLY|os.O_APPEND, 0)
	})
	if h.openErr != nil || h.file == nil {
		return nil // breadcrumb failures are non-fatal
	}

	line := fmt.Sprintf("%s run_id=%s %s\n", time.Now().Format(time.RFC3339), e.Data["run_id"], e.Message)
	_, _ = h.file.WriteString(line) // best-effort; errors here are also non-fatal
	return nil
}
