package tabletop

import "sync"

// task applies fn to every element of data, split in contiguous chunks over
// workersCount goroutines. It runs inline with a single worker.
func task[T any](workersCount int, data []T, fn func(data T)) {
	if workersCount <= 1 || len(data) < 2 {
		for _, d := range data {
			fn(d)
		}
		return
	}

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for start := 0; start < dataSize; start += chunkSize {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(data[i])
			}
		}(start, min(start+chunkSize, dataSize))
	}
	wg.Wait()
}
