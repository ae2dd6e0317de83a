package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteEmitsCompleteLinesOnly(t *testing.T) {
	d := NewDevice(10)

	d.WriteString(1, "hello, ")
	assert.Empty(t, d.Lines())

	d.WriteString(1, "world\n")
	lines := d.Lines()
	assert.Equal(t, []Line{{PID: 1, Text: "hello, world"}}, lines)
}

func TestWriteAttributesByPID(t *testing.T) {
	d := NewDevice(10)

	d.WriteString(1, "from one\n")
	d.WriteString(2, "from two\n")

	lines := d.Lines()
	assert.Equal(t, 2, len(lines))
	assert.Equal(t, uint32(1), lines[0].PID)
	assert.Equal(t, uint32(2), lines[1].PID)
}

func TestCapacityDropsOldestLine(t *testing.T) {
	d := NewDevice(2)

	d.WriteString(1, "a\n")
	d.WriteString(1, "b\n")
	d.WriteString(1, "c\n")

	lines := d.Lines()
	assert.Equal(t, []Line{{PID: 1, Text: "b"}, {PID: 1, Text: "c"}}, lines)
}

func TestForgetDropsPendingPartialLine(t *testing.T) {
	d := NewDevice(10)
	d.WriteString(3, "incomplete")
	d.Forget(3)
	d.WriteString(3, " reused\n")

	lines := d.Lines()
	assert.Equal(t, []Line{{PID: 3, Text: " reused"}}, lines)
}
