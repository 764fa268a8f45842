package tokenbuf

import "context"

// InterruptChecker polls a context between tokens. Checking is a
// non-blocking channel receive, cheap enough to run once per token.
type InterruptChecker struct {
	ctx  context.Context
	done <-chan struct{}
}

func NewInterruptChecker(ctx context.Context) InterruptChecker {
	if ctx == nil {
		ctx = context.Background()
	}
	return InterruptChecker{ctx: ctx, done: ctx.Done()}
}

// Check returns the context error once the context is done.
func (c InterruptChecker) Check() error {
	if c.done == nil {
		return nil
	}
	select {
	case <-c.done:
		return c.ctx.Err()
	default:
		return nil
	}
}
