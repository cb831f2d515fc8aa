package fastalloc

import "unsafe"

// 空闲块的第一个字被复用为指向下一个空闲块的地址, 0 表示链表结尾.
// readLink 和 writeLink 是唯一直接解释块内存的地方.

func readLink(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

func writeLink(addr uintptr, next uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = next
}

// walk follows at most n-1 links from head and returns the node reached
// together with the number of nodes visited. It stops early on a null link.
func walk(head uintptr, n int) (last uintptr, count int) {
	if head == 0 || n <= 0 {
		return 0, 0
	}
	last = head
	count = 1
	for count < n {
		next := readLink(last)
		if next == 0 {
			break
		}
		last = next
		count++
	}
	return last, count
}

// carve links n consecutive blocks of size bytes starting at base into a
// null terminated chain and returns its tail.
func carve(base uintptr, size uintptr, n int) (tail uintptr) {
	if n <= 0 {
		return 0
	}
	cur := base
	for i := 1; i < n; i++ {
		next := cur + size
		writeLink(cur, next)
		cur = next
	}
	writeLink(cur, 0)
	return cur
}

func chainLen(head uintptr) int {
	n := 0
	for cur := head; cur != 0; cur = readLink(cur) {
		n++
	}
	return n
}
