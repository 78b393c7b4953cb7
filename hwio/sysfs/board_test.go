package sysfs

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/mdouchement/rcard/rcar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSys(t *testing.T, cfg Config) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv(KeyHostSys, root)

	cfg, err := cfg.Normalize()
	require.NoError(t, err)

	for _, n := range []int{cfg.LeftChannel, cfg.RightChannel} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "pwm", "pwmchip0", "pwm"+strconv.Itoa(n)), 0o755))
	}
	lines := []int{*cfg.IndicatorGPIO}
	for _, line := range cfg.DirectionGPIOs {
		lines = append(lines, line)
	}
	for _, line := range lines {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "gpio", "gpio"+strconv.Itoa(line)), 0o755))
	}

	return root
}

func read(t *testing.T, elem ...string) string {
	t.Helper()

	p, err := os.ReadFile(filepath.Join(elem...))
	require.NoError(t, err)
	return string(p)
}

func TestOpen(t *testing.T) {
	root := fakeSys(t, DefaultConfig())

	b, err := Open(DefaultConfig())
	require.NoError(t, err)

	left := b.pwms[rcar.ChannelLeft]
	assert.Equal(t, filepath.Join(root, "class", "pwm", "pwmchip0", "pwm0"), left)
	assert.Equal(t, "1000000", read(t, left, "period"))
	assert.Equal(t, "0", read(t, left, "duty_cycle"))
	assert.Equal(t, "1", read(t, left, "enable"))

	for _, dir := range b.direction {
		assert.Equal(t, "out", read(t, dir, "direction"))
		assert.Equal(t, "0", read(t, dir, "value"))
	}
	assert.Equal(t, "0", read(t, b.indicator, "value"))
}

func TestSetPWMDuty(t *testing.T) {
	fakeSys(t, DefaultConfig())

	b, err := Open(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, b.SetPWMDuty(rcar.ChannelLeft, 255))
	assert.Equal(t, "1000000", read(t, b.pwms[rcar.ChannelLeft], "duty_cycle"))

	require.NoError(t, b.SetPWMDuty(rcar.ChannelLeft, 219))
	assert.Equal(t, "858823", read(t, b.pwms[rcar.ChannelLeft], "duty_cycle"))

	require.NoError(t, b.SetPWMDuty(rcar.ChannelRight, 0xFFFF))
	assert.Equal(t, "1000000", read(t, b.pwms[rcar.ChannelRight], "duty_cycle"))

	require.ErrorIs(t, b.SetPWMDuty(rcar.ChannelLeft, 300), rcar.ErrInvalidDuty)
}

func TestSetDirectionBits(t *testing.T) {
	fakeSys(t, DefaultConfig())

	b, err := Open(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, b.SetDirectionBits(rcar.DirectionForward)) // bits 2 and 4
	assert.Equal(t, "1", read(t, b.direction[2], "value"))
	assert.Equal(t, "0", read(t, b.direction[3], "value"))
	assert.Equal(t, "1", read(t, b.direction[4], "value"))
	assert.Equal(t, "0", read(t, b.direction[5], "value"))

	require.NoError(t, b.SetDirectionBits(rcar.DirectionBackward)) // bits 3 and 5
	assert.Equal(t, "0", read(t, b.direction[2], "value"))
	assert.Equal(t, "1", read(t, b.direction[3], "value"))
	assert.Equal(t, "0", read(t, b.direction[4], "value"))
	assert.Equal(t, "1", read(t, b.direction[5], "value"))

	require.ErrorIs(t, b.SetDirectionBits(0b10000000), ErrUnmappedBit)
	assert.Equal(t, "1", read(t, b.direction[3], "value"), "rejected mask must not touch outputs")

	require.NoError(t, b.SetIndicatorBits(rcar.IndicatorWorking))
	assert.Equal(t, "1", read(t, b.indicator, "value"))

	require.NoError(t, b.Close())
	for _, dir := range b.direction {
		assert.Equal(t, "0", read(t, dir, "value"))
	}
	assert.Equal(t, "0", read(t, b.indicator, "value"))
	assert.Equal(t, "0", read(t, b.pwms[rcar.ChannelRight], "enable"))
}

func TestOpenExportFailure(t *testing.T) {
	root := t.TempDir()
	t.Setenv(KeyHostSys, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class", "pwm", "pwmchip0"), 0o755))

	_, err := Open(DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export 0")
}

func TestConfigNormalize(t *testing.T) {
	cfg, err := Config{RightChannel: 1}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = Config{}.Normalize()
	assert.Error(t, err, "both channels default to pwm0")

	disabled := -1
	cfg, err = Config{RightChannel: 2, IndicatorGPIO: &disabled}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, -1, *cfg.IndicatorGPIO)

	for _, invalid := range []Config{
		{PWMChip: -1, RightChannel: 1},
		{LeftChannel: 1, RightChannel: 1},
		{RightChannel: 1, DirectionGPIOs: map[uint8]int{8: 1}},
		{RightChannel: 1, DirectionGPIOs: map[uint8]int{2: 5, 3: 5}},
		{RightChannel: 1, DirectionGPIOs: map[uint8]int{2: 5}, IndicatorGPIO: intPtr(5)},
	} {
		_, err := invalid.Normalize()
		assert.Error(t, err, "%+v", invalid)
	}
}

func intPtr(v int) *int {
	return &v
}
