// Package memory is the physical page allocator: fixed-size pages handed
// out as user stacks, backed by a pool of byte slices rather than real
// physical addresses.
package memory

import (
	"errors"
	"unsafe"

	"github.com/sasha-s/go-deadlock"
)

// ErrOutOfMemory is returned by AllocatePage when the arena is exhausted.
var ErrOutOfMemory = errors.New("no free page")

// Allocator hands out, reclaims, and copies stack pages.
type Allocator interface {
	AllocatePage() ([]byte, error)
	ReleasePage(page []byte)
	CopyPage(dst, src []byte)
	PageSize() int
	Stats() (total, free int)
}

// Arena is a fixed pool of numPages pageSize-byte pages with a
// mutex-guarded freelist.
type Arena struct {
	mu       deadlock.Mutex
	pageSize int
	free     [][]byte
	total    int
}

// NewArena allocates numPages pages of pageSize bytes up front and seeds the
// freelist with all of them.
func NewArena(pageSize, numPages int) *Arena {
	a := &Arena{pageSize: pageSize, total: numPages}
	for i := 0; i < numPages; i++ {
		a.free = append(a.free, make([]byte, pageSize))
	}
	return a
}

// PageSize returns the fixed page size in bytes.
func (a *Arena) PageSize() int {
	return a.pageSize
}

// AllocatePage pops a zeroed page off the freelist, or returns
// ErrOutOfMemory.
func (a *Arena) AllocatePage() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.free) == 0 {
		return nil, ErrOutOfMemory
	}
	n := len(a.free)
	page := a.free[n-1]
	a.free = a.free[:n-1]
	for i := range page {
		page[i] = 0
	}
	return page, nil
}

// ReleasePage returns a page to the freelist.
func (a *Arena) ReleasePage(page []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, page)
}

// CopyPage byte-copies src into dst, used by fork to duplicate the parent's
// stack contents into the child's page.
func (a *Arena) CopyPage(dst, src []byte) {
	copy(dst, src)
}

// Stats reports the arena's total and currently-free page counts, the
// source of the sysinfo syscall's totalram/freeram fields.
func (a *Arena) Stats() (total, free int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total, len(a.free)
}

// PageAddr returns the simulated physical address of a page. There is no
// MMU in this simulation, but fork's stack-relative SP/FP fix-up and exec's
// stack-top placement need a stable numeric base per page; the slice's
// backing array address serves that purpose. Callers must keep a reference
// to the page alive (Process.Stack does) for as long as they hold onto its
// address.
func PageAddr(page []byte) uint64 {
	if len(page) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&page[0])))
}
