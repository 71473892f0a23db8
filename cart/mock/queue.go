package mock

import (
	"gbrw/cart"
	"time"
)

// Queue executes commands against no hardware at all. It exists so callers
// and tests can exercise enqueue/completion ordering without an adapter.
type Queue struct {
	cart.BaseQueue
}

func (q *Queue) Close() error {
	return nil
}

func (q *Queue) IsTerminalError(err error) bool {
	return false
}

// DelayCommand simulates a slow adapter command.
type DelayCommand struct {
	Duration time.Duration
}

func (c *DelayCommand) Execute(queue cart.Queue) error {
	<-time.After(c.Duration)
	return nil
}
