package async

import (
	"context"

	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// Map applies f to every element of src with at most concurrencyLimit calls
// in flight. Results keep the order of src. The first error cancels the
// context handed to the remaining calls and is returned.
func Map[T any, D any](ctx context.Context, src []T, concurrencyLimit int, f func(context.Context, T) (D, error)) ([]D, error) {
	if len(src) == 0 {
		return []D{}, nil
	}

	if concurrencyLimit <= 0 {
		concurrencyLimit = len(src)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(min(concurrencyLimit, len(src)))

	results := make([]D, len(src))
	for i, element := range src {
		i, element := i, element
		eg.Go(func() error {
			r, err := f(ctx, element)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
