package util

import "testing"

// NewTestingLogger returns a writer that forwards each log line to tb.Log.
// Pass it to log.SetOutput in tests to fold driver logging into the test
// output.
func NewTestingLogger(tb testing.TB) *CommitLogger {
	return &CommitLogger{
		Committer: func(p []byte) {
			tb.Log(string(p))
		},
	}
}
