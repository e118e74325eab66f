package main

import (
	"fmt"
	"log/slog"

	"github.com/itohio/goalt/pkg/baro"
	"github.com/itohio/goalt/pkg/baro/bmp280"
	"github.com/itohio/goalt/pkg/baro/serialbaro"
	"github.com/itohio/goalt/pkg/config"
	"github.com/itohio/goalt/pkg/display"
	"github.com/itohio/goalt/pkg/display/tm1637"
)

func openSensor(cfg *config.Config, logger *slog.Logger) (baro.Sensor, error) {
	switch cfg.Sensor.Driver {
	case config.SensorMock:
		logger.Info("using mock sensor", "base_pressure", cfg.Mock.BasePressure)
		return baro.NewMock(&cfg.Mock), nil
	case config.SensorSerial:
		logger.Info("using serial sensor", "port", cfg.Sensor.Port, "baud", cfg.Sensor.BaudRate)
		s := serialbaro.New(cfg.Sensor.Port, cfg.Sensor.BaudRate, cfg.Sensor.ReadTimeout, logger)
		s.SetStartupTimeout(cfg.Sensor.StartupTimeout)
		return s, nil
	case config.SensorBMP280:
		logger.Info("using bmp280 sensor", "bus", cfg.Sensor.I2CBus, "address", fmt.Sprintf("0x%02x", cfg.Sensor.I2CAddress))
		return bmp280.New(cfg.Sensor.I2CBus, cfg.Sensor.I2CAddress), nil
	default:
		return nil, fmt.Errorf("%w: unknown sensor driver %q", config.ErrInvalid, cfg.Sensor.Driver)
	}
}

func openDisplay(cfg *config.Config, logger *slog.Logger) (display.Display, error) {
	switch cfg.Display.Driver {
	case config.DisplayLog:
		return display.NewLog(logger), nil
	case config.DisplayTM1637:
		d, err := tm1637.Open(cfg.Display.ClkPin, cfg.Display.DioPin, cfg.Display.Brightness)
		if err != nil {
			return nil, fmt.Errorf("display: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unknown display driver %q", config.ErrInvalid, cfg.Display.Driver)
	}
}
