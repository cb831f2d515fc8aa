package fastalloc

import "log/slog"

type MemoryType int

const (
	GO   MemoryType = 1
	SHM  MemoryType = 2
	MMAP MemoryType = 3
)

func (t MemoryType) String() string {
	switch t {
	case GO:
		return "go"
	case SHM:
		return "shm"
	case MMAP:
		return "mmap"
	}
	return "unknown"
}

type Config struct {
	// memory type in GO SHM MMAP, where the page cache maps its spans from
	MemoryType MemoryType
	// pages requested from the page cache when a central list runs dry
	// and the batch fits in it
	SpanPages uint64
	// thread cache held blocks per size class before half of them go back
	ReturnThreshold uint32
	// upper bound of bytes moved by one thread cache refill
	MaxBatchBytes uint64
	// logger for slow path events, discard when nil
	Logger *slog.Logger
}

func DefaultConfig() *Config {
	var defaultConfig = &Config{
		MemoryType:      MMAP,
		SpanPages:       8,
		ReturnThreshold: 64,
		MaxBatchBytes:   4 * KB,
	}
	return defaultConfig
}

func mergeConfig(c *Config) *Config {
	config := DefaultConfig()
	if c == nil {
		return config
	}
	if c.MemoryType != 0 {
		config.MemoryType = c.MemoryType
	}
	if c.SpanPages > 0 {
		config.SpanPages = c.SpanPages
	}
	if c.ReturnThreshold > 0 {
		config.ReturnThreshold = c.ReturnThreshold
	}
	if c.MaxBatchBytes > 0 {
		config.MaxBatchBytes = c.MaxBatchBytes
	}
	if c.Logger != nil {
		config.Logger = c.Logger
	}
	return config
}
