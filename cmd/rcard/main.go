package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"
	"syscall"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/rcard"
	showcommands "github.com/mdouchement/rcard/cmd/rcard/show_commands"
	showports "github.com/mdouchement/rcard/cmd/rcard/show_ports"
	"github.com/mdouchement/rcard/hwio/sysfs"
	"github.com/mdouchement/rcard/rcar"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cpath string
	dummy bool
)

func main() {
	cmd := &cobra.Command{
		Use:     "rcard",
		Short:   "Drive a two-motor RC vehicle from single-byte serial commands",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    cobra.NoArgs,
		RunE:    daemon,
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "/etc/rcard/rcard.yml", "Configfile path")
	cmd.Flags().BoolVarP(&dummy, "dummy", "", false, "Start rcard with in-memory motor outputs")
	cmd.AddCommand(showcommands.Command())
	cmd.AddCommand(showports.Command())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Version for rcard",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(cmd.Version)
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

type hardware interface {
	rcard.HardwareIO
	SetLogger(l logger.Logger)
	Close() error
}

func daemon(_ *cobra.Command, args []string) error {
	cfg, err := rcard.Load(cpath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	h := logger.NewSlogTextHandler(os.Stderr, &logger.SlogTextOption{
		Level:            level,
		ForceColors:      true,
		ForceFormatting:  true,
		PrefixRE:         regexp.MustCompile(`^(\[.*?\])\s`),
		DisableTimestamp: true, // Provided by journalctl
	})
	log := logger.WrapSlogHandler(h)
	ctx := logger.WithLogger(context.Background(), log)

	log.Infof("rcard version %s", version)

	var hw hardware = rcard.NewDummyHardware()
	if !dummy {
		hw, err = sysfs.Open(cfg.Hardware)
		if err != nil {
			return fmt.Errorf("hardware: %w", err)
		}
	}
	defer hw.Close()
	if cfg.Debug {
		hw.SetLogger(log)
	}

	ctrl := rcard.New(cfg, hw)
	ctrl.SetLogger(log)
	if err = ctrl.Initialize(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Socket != "" {
		monitor, err := rcard.NewMonitor(cfg.Socket)
		if err != nil {
			return err
		}
		monitor.Launch(ctx)
		ctrl.OnChange(monitor.Observe)
	}

	for {
		err = serve(ctx, cfg, ctrl)
		if ctx.Err() != nil {
			break
		}

		log.WithError(err).Errorf("Serial link lost, retrying in %s", cfg.ReconnectDelay)
		if err = ctrl.Initialize(); err != nil {
			log.WithError(err).Error("Could not stop the motors")
		}

		select {
		case <-ctx.Done():
		case <-time.After(cfg.ReconnectDelay.Duration):
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err = ctrl.Initialize(); err != nil {
		log.WithError(err).Error("Could not stop the motors")
	}

	log.Info("Gracefully shutdown")
	return nil
}

// serve runs the dispatch loop on a freshly opened link until it fails.
func serve(ctx context.Context, cfg rcard.Config, ctrl *rcard.Controller) error {
	log := logger.LogWith(ctx)

	transport, err := openTransport(cfg)
	if err != nil {
		return err
	}
	defer transport.Close()
	if cfg.Debug {
		transport.SetLogger(log)
	}

	if err = transport.Initialize(cfg.Serial.SerialConfig); err != nil {
		return err
	}
	log.Infof("Listening for commands on `%s`", transport.Port())

	// Closing the port is the only way to release a pending ReceiveByte.
	release := context.AfterFunc(ctx, func() {
		transport.Close()
	})
	defer release()

	ctrl.Attach(transport)
	defer ctrl.Attach(nil)

	err = ctrl.Run(ctx)
	var terr *rcar.TransportError
	if errors.As(err, &terr) && errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: disconnected", transport.Port())
	}
	return err
}

func openTransport(cfg rcard.Config) (*rcar.Transport, error) {
	switch cfg.Serial.Port {
	case rcard.PortStdio:
		return rcar.NewTransport("stdio", stdio{}), nil
	case rcard.PortAuto:
		return rcar.OpenAuto(cfg.Serial.VID, cfg.Serial.PID, cfg.Serial.ReadTimeout.Duration)
	default:
		return rcar.Open(cfg.Serial.Port, cfg.Serial.ReadTimeout.Duration)
	}
}

// stdio lets the daemon be driven from a terminal, acknowledgements go to stdout.
type stdio struct{}

func (stdio) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdio) Close() error {
	return os.Stdin.Close()
}
