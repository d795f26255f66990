package dmx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniverseSet(t *testing.T) {
	var u Universe

	require.NoError(t, u.Set(1, 255))
	require.NoError(t, u.Set(512, 64))
	assert.Equal(t, byte(255), u[0])
	assert.Equal(t, byte(64), u[511])
	assert.Equal(t, byte(255), u.Get(1))
	assert.Equal(t, byte(64), u.Get(512))
}

func TestUniverseSet_OutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		address int
	}{
		{"zero", 0},
		{"negative", -3},
		{"past end", 513},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u Universe
			err := u.Set(tt.address, 10)
			assert.True(t, errors.Is(err, ErrAddressOutOfRange))
			assert.Equal(t, 0, u.CountActive())
			assert.Equal(t, byte(0), u.Get(tt.address))
		})
	}
}

func TestUniverseBlackout(t *testing.T) {
	var u Universe
	for i := 1; i <= UniverseSize; i++ {
		_ = u.Set(i, byte(i))
	}
	require.NotZero(t, u.CountActive())

	u.Blackout()

	assert.Equal(t, 0, u.CountActive())
}

func TestUniverseDiff(t *testing.T) {
	var prev, cur Universe
	_ = prev.Set(3, 7)
	_ = cur.Set(3, 7)
	_ = cur.Set(10, 200)
	_ = prev.Set(20, 9)

	changes := cur.Diff(&prev)

	assert.Equal(t, []Change{
		{Address: 10, Value: 200},
		{Address: 20, Value: 0},
	}, changes)
	assert.Empty(t, cur.Diff(&cur))
}

func TestUniverseInts(t *testing.T) {
	var u Universe
	_ = u.Set(2, 128)

	ints := u.Ints()

	require.Len(t, ints, UniverseSize)
	assert.Equal(t, 128, ints[1])
	assert.Equal(t, 0, ints[0])
}
