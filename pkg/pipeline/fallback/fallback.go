// Package fallback implements the ordered-strategy-chain pattern used by
// the Field Parser Stage's LLM-then-regex fallback: try each Strategy in
// order, keep the first one that reports success. The Text Extraction
// Stage's sync-then-rasterize fallback does not use this package.
package fallback

// Strategy produces a value of T and reports whether it succeeded. A
// Strategy that returns ok=false is skipped in favor of the next one in
// the chain; its value is discarded.
type Strategy[T any] func() (T, bool)

// FirstSuccess walks strategies in order and returns the first successful
// result. If every strategy fails, it returns the zero value of T and
// false.
func FirstSuccess[T any](strategies ...Strategy[T]) (T, bool) {
	for _, try := range strategies {
		if value, ok := try(); ok {
			return value, true
		}
	}
	var zero T
	return zero, false
}
