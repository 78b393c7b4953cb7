package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/rcard/rcar"
)

// KeyHostSys overrides the sysfs mount point, e.g. when running in a container.
const KeyHostSys = "HOST_SYS"

var ErrUnmappedBit = errors.New("direction bit has no gpio")

// A Board drives the motors through the Linux PWM and GPIO sysfs interfaces.
type Board struct {
	cfg       Config
	pwms      map[rcar.Channel]string
	direction map[uint8]string
	indicator string
	log       logger.Logger
}

func hostSys(elem ...string) string {
	v := os.Getenv(KeyHostSys)
	if v == "" {
		v = "/sys"
	}

	return filepath.Join(append([]string{v}, elem...)...)
}

// Open exports and configures every line described by cfg.
// All outputs start low and both PWM channels start enabled at zero duty.
func Open(cfg Config) (*Board, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}

	b := &Board{
		cfg:       cfg,
		pwms:      make(map[rcar.Channel]string, 2),
		direction: make(map[uint8]string, len(cfg.DirectionGPIOs)),
	}

	chip := hostSys("class", "pwm", fmt.Sprintf("pwmchip%d", cfg.PWMChip))
	for _, ch := range []rcar.Channel{rcar.ChannelLeft, rcar.ChannelRight} {
		n := cfg.channel(ch)
		dir := filepath.Join(chip, fmt.Sprintf("pwm%d", n))

		if err = export(filepath.Join(chip, "export"), dir, n); err != nil {
			return nil, fmt.Errorf("%s pwm: %w", ch, err)
		}
		if err = write(dir, "period", cfg.PeriodNS); err != nil {
			return nil, fmt.Errorf("%s pwm: %w", ch, err)
		}
		if err = write(dir, "duty_cycle", 0); err != nil {
			return nil, fmt.Errorf("%s pwm: %w", ch, err)
		}
		if err = write(dir, "enable", 1); err != nil {
			return nil, fmt.Errorf("%s pwm: %w", ch, err)
		}

		b.pwms[ch] = dir
	}

	for bit, line := range cfg.DirectionGPIOs {
		dir, err := openOutput(line)
		if err != nil {
			return nil, fmt.Errorf("direction bit %d: %w", bit, err)
		}
		b.direction[bit] = dir
	}

	if *cfg.IndicatorGPIO >= 0 {
		b.indicator, err = openOutput(*cfg.IndicatorGPIO)
		if err != nil {
			return nil, fmt.Errorf("indicator: %w", err)
		}
	}

	return b, nil
}

func (b *Board) SetLogger(l logger.Logger) {
	b.log = l
}

// SetPWMDuty scales duty from the channel resolution to the configured period.
func (b *Board) SetPWMDuty(ch rcar.Channel, duty uint16) error {
	if err := ch.Validate(duty); err != nil {
		return err
	}

	dir, ok := b.pwms[ch]
	if !ok {
		return fmt.Errorf("%s: unknown pwm channel", ch)
	}

	ns := uint64(duty) * b.cfg.PeriodNS / uint64(ch.Max())
	if b.log != nil {
		b.log.Debugf("pwm %s duty %d => %dns", ch, duty, ns)
	}
	return write(dir, "duty_cycle", ns)
}

func (b *Board) SetDirectionBits(mask rcar.Direction) error {
	for bit := range uint8(8) {
		if mask&(1<<bit) == 0 {
			continue
		}
		if _, ok := b.direction[bit]; !ok {
			return fmt.Errorf("%s: bit %d: %w", mask, bit, ErrUnmappedBit)
		}
	}

	for bit, dir := range b.direction {
		if err := write(dir, "value", level(uint8(mask)&(1<<bit) != 0)); err != nil {
			return fmt.Errorf("direction bit %d: %w", bit, err)
		}
	}

	return nil
}

// SetIndicatorBits lights the indicator for any non-zero mask. It is a no-op without indicator line.
func (b *Board) SetIndicatorBits(mask rcar.Indicator) error {
	if b.indicator == "" {
		return nil
	}

	return write(b.indicator, "value", level(mask != rcar.IndicatorOff))
}

// Close brings every output low and disables the PWM channels.
func (b *Board) Close() error {
	var errs []error
	for _, dir := range b.pwms {
		errs = append(errs, write(dir, "duty_cycle", 0), write(dir, "enable", 0))
	}
	for _, dir := range b.direction {
		errs = append(errs, write(dir, "value", 0))
	}
	if b.indicator != "" {
		errs = append(errs, write(b.indicator, "value", 0))
	}

	return errors.Join(errs...)
}

//
//
//

func openOutput(line int) (string, error) {
	dir := hostSys("class", "gpio", fmt.Sprintf("gpio%d", line))
	if err := export(hostSys("class", "gpio", "export"), dir, line); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(dir, "direction"), []byte("out"), 0o644); err != nil {
		return "", err
	}

	return dir, write(dir, "value", 0)
}

func export(file, dir string, n int) error {
	if _, err := os.Stat(dir); err == nil {
		return nil // Already exported
	}

	err := os.WriteFile(file, []byte(strconv.Itoa(n)), 0o200)
	if err != nil {
		return fmt.Errorf("export %d: %w", n, err)
	}

	if _, err = os.Stat(dir); err != nil {
		return fmt.Errorf("export %d: %w", n, err)
	}
	return nil
}

func write[T ~int | ~uint64](dir, attr string, v T) error {
	return os.WriteFile(filepath.Join(dir, attr), strconv.AppendUint(nil, uint64(v), 10), 0o644)
}

func level(high bool) int {
	if high {
		return 1
	}
	return 0
}
