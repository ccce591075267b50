package driving

import "context"

// Await starts an asynchronous operation and blocks until it reports a
// value or ctx is done. start receives the completion callback and returns
// an error if the operation could not be queued.
//
// Await must not be called from a BatchSynchronizer completion callback:
// the operation it waits for would be queued behind the caller.
func Await[T any](ctx context.Context, start func(done func(T)) error) (T, error) {
	ch := make(chan T, 1)
	var zero T

	if err := start(func(v T) {
		select {
		case ch <- v:
		default:
		}
	}); err != nil {
		return zero, err
	}

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
