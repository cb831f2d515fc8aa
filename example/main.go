package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"
	"unsafe"

	"github.com/leslie-fei/fastalloc"
)

func main() {
	var workers int
	var duration time.Duration
	var memType string
	var verbose bool

	// Example command: go run ./example -w 8 -d 5s -m mmap
	flag.IntVar(&workers, "w", 8, "number of worker goroutines")
	flag.DurationVar(&duration, "d", 3*time.Second, "how long to run")
	flag.StringVar(&memType, "m", "mmap", "page memory type: go, shm or mmap")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	typ := fastalloc.MMAP
	switch memType {
	case "go":
		typ = fastalloc.GO
	case "shm":
		typ = fastalloc.SHM
	}

	pool, err := fastalloc.NewPool(&fastalloc.Config{MemoryType: typ, Logger: logger})
	if err != nil {
		logger.Error("create pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	sizes := []uintptr{16, 64, 256, 4096, 65536, 300 * fastalloc.KB}
	counts := make([]int, workers)
	deadline := time.Now().Add(duration)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		tc, err := pool.NewThreadCache()
		if err != nil {
			logger.Error("new thread cache", "error", err)
			os.Exit(1)
		}
		wg.Add(1)
		go func(w int, tc *fastalloc.ThreadCache) {
			defer wg.Done()
			defer tc.Close()

			type block struct {
				ptr  unsafe.Pointer
				size uintptr
			}
			rnd := rand.New(rand.NewSource(int64(w)))
			held := make([]block, 0, 128)
			for time.Now().Before(deadline) {
				if len(held) == cap(held) || (len(held) > 0 && rnd.Intn(2) == 0) {
					k := rnd.Intn(len(held))
					tc.Deallocate(held[k].ptr, held[k].size)
					held[k] = held[len(held)-1]
					held = held[:len(held)-1]
					continue
				}
				size := sizes[rnd.Intn(len(sizes))]
				ptr, err := tc.Allocate(size)
				if err != nil {
					logger.Warn("allocate failed", "worker", w, "size", size, "error", err)
					continue
				}
				held = append(held, block{ptr: ptr, size: size})
				counts[w]++
			}
			for _, b := range held {
				tc.Deallocate(b.ptr, b.size)
			}
		}(w, tc)
	}
	wg.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	logger.Info("done", "workers", workers, "duration", duration, "allocations", total,
		"perSecond", int(float64(total)/duration.Seconds()))
}
