package route

// MaxBatchSize is the destination's per-call item limit.
const MaxBatchSize = 10

// Chunk splits items into consecutive slices of at most size elements.
// The chunks share the backing array of items. A non-positive size falls
// back to MaxBatchSize.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = MaxBatchSize
	}
	if len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
