package fastalloc

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

var xxHashAddr = func(addr uintptr) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(addr))
	return xxhash.Sum64(b[:])
}
