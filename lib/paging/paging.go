// Package paging implements the pull-based iteration protocol shared by
// every paged traversal in the library. The page cursor lives inside the
// fetch closure; consumers only see a flat stream of records.
//
//	it := user.IterArticles(opts)
//	for it.Next(ctx) {
//		handle(it.Item())
//	}
//	if err := it.Err(); err != nil { ... }
package paging

import "context"

// FetchPage returns the next page of records, advancing whatever cursor
// it closes over. An empty page without error ends the stream.
type FetchPage[T any] func(ctx context.Context) ([]T, error)

type Iterator[T any] struct {
	fetch FetchPage[T]
	buf   []T
	idx   int
	done  bool
	err   error
}

func New[T any](fetch FetchPage[T]) *Iterator[T] {
	return &Iterator[T]{fetch: fetch}
}

// Next advances the iterator, fetching the next page when the buffered
// one is exhausted. Pages are requested strictly sequentially. After an
// error or the final page, Next always returns false.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done {
		return false
	}
	it.idx++
	if it.idx < len(it.buf) {
		return true
	}

	page, err := it.fetch(ctx)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	if len(page) == 0 {
		it.done = true
		return false
	}
	it.buf = page
	it.idx = 0
	return true
}

// Item returns the record Next positioned on. Only valid after a true
// Next.
func (it *Iterator[T]) Item() T {
	return it.buf[it.idx]
}

// Err returns the error that ended the stream, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Collect drains up to limit records from the iterator (everything when
// limit <= 0).
func Collect[T any](ctx context.Context, it *Iterator[T], limit int) ([]T, error) {
	var out []T
	for it.Next(ctx) {
		out = append(out, it.Item())
		if limit > 0 && len(out) >= limit {
			return out, nil
		}
	}
	return out, it.Err()
}
