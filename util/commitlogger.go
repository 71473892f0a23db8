package util

import "bytes"

// CommitLogger buffers written bytes and hands each complete line to the
// Committer. Useful for routing package log output somewhere line-oriented,
// e.g. a testing.TB.
type CommitLogger struct {
	Committer func(p []byte)
	buf       []byte
}

func (l *CommitLogger) Write(p []byte) (n int, err error) {
	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		l.commit(l.buf[:i])
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

func (l *CommitLogger) commit(line []byte) {
	if l.Committer != nil {
		l.Committer(line)
	}
}

// Flush commits any incomplete trailing line.
func (l *CommitLogger) Flush() {
	if len(l.buf) > 0 {
		l.commit(l.buf)
		l.buf = l.buf[:0]
	}
}
