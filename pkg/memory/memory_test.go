package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateUntilExhausted(t *testing.T) {
	a := NewArena(64, 2)

	p1, err := a.AllocatePage()
	assert.NoError(t, err)
	p2, err := a.AllocatePage()
	assert.NoError(t, err)
	assert.NotNil(t, p1)
	assert.NotNil(t, p2)

	_, err = a.AllocatePage()
	assert.Equal(t, ErrOutOfMemory, err)

	a.ReleasePage(p1)
	p3, err := a.AllocatePage()
	assert.NoError(t, err)
	assert.NotNil(t, p3)
}

func TestAllocatePageZeroesRecycledPages(t *testing.T) {
	a := NewArena(8, 1)

	p, _ := a.AllocatePage()
	p[3] = 0xFF
	a.ReleasePage(p)

	p, _ = a.AllocatePage()
	assert.Equal(t, byte(0), p[3])
}

func TestCopyPageDuplicatesContents(t *testing.T) {
	a := NewArena(16, 2)
	src, _ := a.AllocatePage()
	dst, _ := a.AllocatePage()

	src[0] = 0xAB
	src[15] = 0xCD
	a.CopyPage(dst, src)

	assert.Equal(t, src, dst)
}

func TestStats(t *testing.T) {
	a := NewArena(32, 4)

	total, free := a.Stats()
	assert.Equal(t, 4, total)
	assert.Equal(t, 4, free)

	p, _ := a.AllocatePage()
	_, free = a.Stats()
	assert.Equal(t, 3, free)

	a.ReleasePage(p)
	_, free = a.Stats()
	assert.Equal(t, 4, free)
}

func TestPageAddrIsStablePerPage(t *testing.T) {
	a := NewArena(16, 2)
	p1, _ := a.AllocatePage()
	p2, _ := a.AllocatePage()

	assert.Equal(t, PageAddr(p1), PageAddr(p1))
	assert.NotEqual(t, PageAddr(p1), PageAddr(p2))
	assert.Equal(t, uint64(0), PageAddr(nil))
}
