//go:build !race

package fastalloc

const raceEnabled = false
