package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/goalt/pkg/altimeter"
	"github.com/itohio/goalt/pkg/baro"
	"github.com/itohio/goalt/pkg/baro/serialbaro"
	"github.com/itohio/goalt/pkg/config"
	"github.com/itohio/goalt/pkg/logging"
	"github.com/itohio/goalt/pkg/pin"
	"github.com/itohio/goalt/pkg/telemetry"
)

func main() {
	var (
		configFlag      = flag.String("config", "config.yaml", "Configuration file path")
		sensorFlag      = flag.String("sensor", "", "Sensor driver override (mock, serial, bmp280)")
		portFlag        = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		listPortsFlag   = flag.Bool("list-ports", false, "List serial ports and exit")
		writeConfigFlag = flag.Bool("write-config", false, "Write the effective configuration to -config and exit")
	)
	flag.Parse()

	if *listPortsFlag {
		if err := listPorts(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *sensorFlag != "" {
		cfg.Sensor.Driver = *sensorFlag
	}
	if *portFlag != "" {
		cfg.Sensor.Port = *portFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *writeConfigFlag {
		if err := cfg.Save(*configFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(cfg.Log, "altimeterd")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("altimeter stopped", "error", err)
		if errors.Is(err, baro.ErrSensorAbsent) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	sensor, err := openSensor(cfg, logger)
	if err != nil {
		return err
	}
	defer sensor.Close()

	disp, err := openDisplay(cfg, logger)
	if err != nil {
		return err
	}

	var out pin.Output
	if cfg.GPIO.Enabled {
		o, err := pin.OpenOutput(cfg.GPIO.AlarmPin)
		if err != nil {
			return fmt.Errorf("alarm output: %w", err)
		}
		defer o.Set(false)
		out = o
	}

	alt := altimeter.New(cfg, sensor, disp, out, logger)

	if cfg.GPIO.Enabled && cfg.GPIO.ButtonPin != "" {
		button, err := pin.OpenButton(cfg.GPIO.ButtonPin)
		if err != nil {
			return fmt.Errorf("calibration button: %w", err)
		}
		go pin.WatchButton(ctx, button, 0, func() {
			alt.RequestCalibration()
		})
	}

	if cfg.Telemetry.Enabled {
		pub := telemetry.New(cfg.Telemetry, logger)
		defer pub.Close()
		go func() {
			if err := pub.Connect(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("telemetry unavailable", "error", err)
			}
		}()
		go pub.Run(ctx)
		alt.OnUpdate(pub.Handle)
	}

	return alt.Run(ctx)
}

func listPorts() error {
	ports, err := serialbaro.Ports()
	if err != nil {
		return err
	}
	for _, p := range ports {
		if p.Description != "" && p.Description != p.Name {
			fmt.Printf("%s (%s)\n", p.Name, p.Description)
			continue
		}
		fmt.Println(p.Name)
	}
	return nil
}
