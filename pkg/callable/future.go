package callable

import "context"

// Future is the pending result of an asynchronous host method call.
type Future struct {
	done   chan struct{}
	result string
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Rejected returns a future that already failed with err.
func Rejected(err error) *Future {
	f := newFuture()
	f.settle("", err)
	return f
}

func (f *Future) settle(result string, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (string, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
