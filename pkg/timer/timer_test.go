package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVirtualStartsAtZero(t *testing.T) {
	v := NewVirtual()
	assert.Equal(t, uint64(0), v.Now())
}

func TestVirtualAdvanceAndSet(t *testing.T) {
	v := NewVirtual()

	assert.Equal(t, uint64(5), v.Advance(5))
	assert.Equal(t, uint64(12), v.Advance(7))

	v.Set(100)
	assert.Equal(t, uint64(100), v.Now())
}

func TestVirtualArmNext(t *testing.T) {
	v := NewVirtual()
	v.ArmNext(42)
	assert.Equal(t, uint64(42), v.ArmedAt())
}

func TestRealTicksForward(t *testing.T) {
	r := NewReal(1_000_000_000)

	first := r.Now()
	second := r.Now()
	assert.GreaterOrEqual(t, second, first)
}
