package fastalloc

const (
	// Alignment every block size is a multiple of
	Alignment = 8
	// MaxBytes largest request served by the size classes
	MaxBytes = 256 * KB
	// NumClasses 8B, 16B, ..., 256KB
	NumClasses = MaxBytes / Alignment
)

// RoundUp rounds n up to a multiple of Alignment.
func RoundUp(n uintptr) uintptr {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// IndexOf maps a request size to its size class index.
func IndexOf(n uintptr) int {
	if n < Alignment {
		n = Alignment
	}
	return int(RoundUp(n)/Alignment) - 1
}

// ClassSize is the block size served by the size class index.
func ClassSize(index int) uintptr {
	return uintptr(index+1) * Alignment
}
