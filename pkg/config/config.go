package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/goalt/pkg/alarm"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Sensor drivers.
const (
	SensorMock   = "mock"
	SensorSerial = "serial"
	SensorBMP280 = "bmp280"
)

// Display drivers.
const (
	DisplayLog    = "log"
	DisplayTM1637 = "tm1637"
)

// Config represents the application configuration.
type Config struct {
	Sensor      SensorConfig      `yaml:"sensor"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Filter      FilterConfig      `yaml:"filter"`
	Alarm       AlarmConfig       `yaml:"alarm"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Display     DisplayConfig     `yaml:"display"`
	GPIO        GPIOConfig        `yaml:"gpio"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Log         LogConfig         `yaml:"log"`
	Mock        MockConfig        `yaml:"mock"`
}

// SensorConfig selects and configures the pressure source.
type SensorConfig struct {
	Driver      string        `yaml:"driver"`       // mock, serial or bmp280
	Port        string        `yaml:"port"`         // serial port of the MCU streaming pressure lines
	BaudRate    int           `yaml:"baud_rate"`    // serial baud rate
	I2CBus      string        `yaml:"i2c_bus"`      // periph bus name, empty for the first bus
	I2CAddress  uint16        `yaml:"i2c_address"`  // 0x76 or 0x77
	ReadTimeout time.Duration `yaml:"read_timeout"` // serial: how long a sample stays fresh
	// serial: how long to wait for the first line while the MCU calibrates
	StartupTimeout time.Duration `yaml:"startup_timeout"`
}

// CalibrationConfig contains reference pressure calibration parameters.
type CalibrationConfig struct {
	Samples     int           `yaml:"samples"`
	Interval    time.Duration `yaml:"interval"` // match the sensor conversion latency
	Lockout     time.Duration `yaml:"lockout"`  // button debounce window
	Validate    bool          `yaml:"validate"`
	MinPressure float32       `yaml:"min_pressure"` // mbar
	MaxPressure float32       `yaml:"max_pressure"` // mbar
}

// FilterConfig contains noise filter parameters.
type FilterConfig struct {
	MedianSize int     `yaml:"median_size"`
	Alpha      float32 `yaml:"alpha"` // low-pass smoothing factor, smaller is smoother but slower
}

// AlarmConfig contains alarm thresholds in metres and the warning blink period.
type AlarmConfig struct {
	alarm.Thresholds `yaml:",inline"`
	WarnPeriod       time.Duration `yaml:"warn_period"`
}

// SchedulerConfig contains the periods of the cooperative tasks.
type SchedulerConfig struct {
	SensorInterval  time.Duration `yaml:"sensor_interval"`
	DisplayInterval time.Duration `yaml:"display_interval"`
}

// DisplayConfig selects and configures the numeric display.
type DisplayConfig struct {
	Driver     string `yaml:"driver"` // log or tm1637
	ClkPin     string `yaml:"clk_pin"`
	DioPin     string `yaml:"dio_pin"`
	Brightness int    `yaml:"brightness"` // 0-7
}

// GPIOConfig contains alarm output and calibration button pins.
type GPIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AlarmPin  string `yaml:"alarm_pin"`
	ButtonPin string `yaml:"button_pin"`
}

// TelemetryConfig contains MQTT telemetry parameters.
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	Interval time.Duration `yaml:"interval"`
}

// LogConfig contains logging parameters.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MockConfig contains mock sensor configuration.
type MockConfig struct {
	BasePressure   float32       `yaml:"base_pressure"`   // Pressure at simulated altitude 0 (mbar)
	Altitude       float32       `yaml:"altitude"`        // Initial simulated altitude (m)
	NoiseLevel     float32       `yaml:"noise_level"`     // Noise amplitude (mbar)
	SpikeEvery     int           `yaml:"spike_every"`     // Inject a glitch every N reads (0 = never)
	SpikeMagnitude float32       `yaml:"spike_magnitude"` // Glitch size (mbar)
	FailEvery      int           `yaml:"fail_every"`      // Fail every N reads (0 = never)
	Absent         bool          `yaml:"absent"`          // Simulate a missing sensor
	Latency        time.Duration `yaml:"latency"`         // Simulated conversion time
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			Driver:         SensorMock,
			Port:           "/dev/ttyACM0",
			BaudRate:       115200,
			I2CAddress:     0x76, // PS pin to GND
			ReadTimeout:    500 * time.Millisecond,
			StartupTimeout: 5 * time.Second,
		},
		Calibration: CalibrationConfig{
			Samples:     75,
			Interval:    30 * time.Millisecond,
			Lockout:     400 * time.Millisecond,
			Validate:    true,
			MinPressure: 300,
			MaxPressure: 1100,
		},
		Filter: FilterConfig{
			MedianSize: 5,
			Alpha:      0.03,
		},
		Alarm: AlarmConfig{
			Thresholds: alarm.Thresholds{
				WarnHigh:   30,
				WarnLow:    -10,
				DangerHigh: 40,
				DangerLow:  -15,
			},
			WarnPeriod: alarm.DefaultWarnPeriod,
		},
		Scheduler: SchedulerConfig{
			SensorInterval:  20 * time.Millisecond,  // 50 Hz
			DisplayInterval: 250 * time.Millisecond, // 4 Hz
		},
		Display: DisplayConfig{
			Driver:     DisplayLog,
			ClkPin:     "GPIO23",
			DioPin:     "GPIO24",
			Brightness: 7,
		},
		GPIO: GPIOConfig{
			Enabled:   false,
			AlarmPin:  "GPIO22",
			ButtonPin: "GPIO21",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			ClientID: "goalt",
			Topic:    "goalt/altitude",
			Interval: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Mock: MockConfig{
			BasePressure:   1013.25,
			Altitude:       0,
			NoiseLevel:     0.02,
			SpikeEvery:     50,
			SpikeMagnitude: 5,
			FailEvery:      0,
			Latency:        0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if err := c.Alarm.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Filter.Alpha <= 0 || c.Filter.Alpha > 1 {
		return fmt.Errorf("%w: filter.alpha must be in (0, 1], got %v", ErrInvalid, c.Filter.Alpha)
	}
	if c.Filter.MedianSize < 1 {
		return fmt.Errorf("%w: filter.median_size must be >= 1, got %d", ErrInvalid, c.Filter.MedianSize)
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"scheduler.sensor_interval", c.Scheduler.SensorInterval},
		{"scheduler.display_interval", c.Scheduler.DisplayInterval},
		{"calibration.interval", c.Calibration.Interval},
		{"alarm.warn_period", c.Alarm.WarnPeriod},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalid, d.name, d.value)
		}
	}
	if c.Calibration.Lockout < 0 {
		return fmt.Errorf("%w: calibration.lockout must not be negative, got %v", ErrInvalid, c.Calibration.Lockout)
	}
	if c.Calibration.Validate && c.Calibration.MinPressure >= c.Calibration.MaxPressure {
		return fmt.Errorf("%w: calibration.min_pressure must be below max_pressure", ErrInvalid)
	}
	switch c.Sensor.Driver {
	case SensorMock, SensorSerial, SensorBMP280:
	default:
		return fmt.Errorf("%w: unknown sensor driver %q", ErrInvalid, c.Sensor.Driver)
	}
	switch c.Display.Driver {
	case DisplayLog, DisplayTM1637:
	default:
		return fmt.Errorf("%w: unknown display driver %q", ErrInvalid, c.Display.Driver)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Driver == "" {
		c.Sensor.Driver = def.Sensor.Driver
	}
	if c.Sensor.BaudRate == 0 {
		c.Sensor.BaudRate = def.Sensor.BaudRate
	}
	if c.Sensor.I2CAddress == 0 {
		c.Sensor.I2CAddress = def.Sensor.I2CAddress
	}
	if c.Sensor.ReadTimeout == 0 {
		c.Sensor.ReadTimeout = def.Sensor.ReadTimeout
	}
	if c.Sensor.StartupTimeout == 0 {
		c.Sensor.StartupTimeout = def.Sensor.StartupTimeout
	}

	if c.Calibration.Samples == 0 {
		c.Calibration.Samples = def.Calibration.Samples
	}
	if c.Calibration.Interval == 0 {
		c.Calibration.Interval = def.Calibration.Interval
	}
	if c.Calibration.Lockout == 0 {
		c.Calibration.Lockout = def.Calibration.Lockout
	}
	if c.Calibration.MinPressure == 0 {
		c.Calibration.MinPressure = def.Calibration.MinPressure
	}
	if c.Calibration.MaxPressure == 0 {
		c.Calibration.MaxPressure = def.Calibration.MaxPressure
	}

	if c.Filter.MedianSize == 0 {
		c.Filter.MedianSize = def.Filter.MedianSize
	}
	if c.Filter.Alpha == 0 {
		c.Filter.Alpha = def.Filter.Alpha
	}

	if c.Alarm.WarnPeriod == 0 {
		c.Alarm.WarnPeriod = def.Alarm.WarnPeriod
	}

	if c.Scheduler.SensorInterval == 0 {
		c.Scheduler.SensorInterval = def.Scheduler.SensorInterval
	}
	if c.Scheduler.DisplayInterval == 0 {
		c.Scheduler.DisplayInterval = def.Scheduler.DisplayInterval
	}

	if c.Display.Driver == "" {
		c.Display.Driver = def.Display.Driver
	}

	if c.Telemetry.Topic == "" {
		c.Telemetry.Topic = def.Telemetry.Topic
	}
	if c.Telemetry.ClientID == "" {
		c.Telemetry.ClientID = def.Telemetry.ClientID
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = def.Telemetry.Interval
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}

	if c.Mock.BasePressure == 0 {
		c.Mock.BasePressure = def.Mock.BasePressure
	}
}
