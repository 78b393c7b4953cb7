package rcar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMotionsTable(t *testing.T) {
	table := Motions(DefaultLeftDuty, DefaultRightDuty)
	require.Len(t, table, 5)

	expected := map[byte]struct {
		left, right uint16
		dir         Direction
		ack         string
	}{
		'b': {219, 0xFFFF, DirectionForward, "Foward\n"},
		'l': {219, 0, DirectionLeft, "Right\n"},
		'r': {0, 0xFFFF, DirectionRight, "Left\n"},
		'f': {219, 0xFFFF, DirectionBackward, "Backwards\n"},
		's': {0, 0, DirectionStop, "Stop\n"},
	}

	for b, e := range expected {
		m, ok := Lookup(table, b)
		require.True(t, ok, string(b))
		assert.Equal(t, e.left, m.LeftDuty, string(b))
		assert.Equal(t, e.right, m.RightDuty, string(b))
		assert.Equal(t, e.dir, m.Direction, string(b))
		assert.Equal(t, e.ack, m.Ack, string(b))

		if b == 's' {
			assert.Equal(t, IndicatorOff, m.Indicator)
		} else {
			assert.Equal(t, IndicatorWorking, m.Indicator)
		}
	}

	for _, b := range []byte{0, 'B', 'x', '\n', 0xFF} {
		_, ok := Lookup(table, b)
		assert.False(t, ok, "%q", b)
	}
}

func TestCommandText(t *testing.T) {
	text, err := CommandForward.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "b", string(text))

	var c Command
	require.NoError(t, c.UnmarshalText([]byte("s")))
	assert.Equal(t, CommandStop, c)
	assert.Error(t, c.UnmarshalText([]byte("st")))
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "left", ChannelLeft.String())
	assert.Equal(t, "right", ChannelRight.String())
	assert.Equal(t, uint16(255), ChannelLeft.Max())
	assert.Equal(t, uint16(65535), ChannelRight.Max())
	assert.Equal(t, "00010100", DirectionForward.String())
}

func TestChannelValidate(t *testing.T) {
	require.NoError(t, ChannelLeft.Validate(255))
	require.ErrorIs(t, ChannelLeft.Validate(256), ErrInvalidDuty)
	require.NoError(t, ChannelRight.Validate(0xFFFF))
}
