// Package serialbaro reads pressure from an MCU streaming diag lines over a
// serial port.
package serialbaro

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/goalt/pkg/baro"
	"github.com/itohio/goalt/pkg/baro/diag"
)

const (
	// DefaultBaudRate matches the firmware UART configuration.
	DefaultBaudRate = 115200
	// DefaultReadTimeout is how long a line stays fresh.
	DefaultReadTimeout = 500 * time.Millisecond
	// DefaultStartupTimeout is how long Begin waits for the first line. The
	// firmware is silent until its own startup calibration (75 x 30 ms) ends.
	DefaultStartupTimeout = 5 * time.Second
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Serial is a baro.Sensor fed by a serial stream.
type Serial struct {
	port     string
	baudRate int
	timeout  time.Duration
	startup  time.Duration
	logger   *slog.Logger
	open     func(port string, mode *serial.Mode) (io.ReadCloser, error)

	mu       sync.Mutex
	conn     io.ReadCloser
	cancel   context.CancelFunc
	latest   diag.Line
	received time.Time
	consumed bool
	first    chan struct{}
	firstOne *sync.Once
	done     chan struct{}
}

// Ensure Serial implements baro.Sensor.
var _ baro.Sensor = (*Serial)(nil)

// New creates a serial sensor on port. Zero values select defaults.
func New(port string, baudRate int, timeout time.Duration, logger *slog.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Serial{
		port:     port,
		baudRate: baudRate,
		timeout:  timeout,
		startup:  DefaultStartupTimeout,
		logger:   logger.With("component", "serialbaro", "port", port),
		open: func(port string, mode *serial.Mode) (io.ReadCloser, error) {
			return serial.Open(port, mode)
		},
	}
}

// SetStartupTimeout sets how long Begin waits for the first line.
// Non-positive values keep the current timeout.
func (s *Serial) SetStartupTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startup = d
}

// Begin opens the port and waits up to the startup timeout for the first line.
func (s *Serial) Begin() error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return fmt.Errorf("already connected")
	}

	conn, err := s.open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: failed to open serial port %s: %w", baro.ErrSensorAbsent, s.port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.conn = conn
	s.cancel = cancel
	s.first = make(chan struct{})
	s.firstOne = &sync.Once{}
	s.done = make(chan struct{})
	first := s.first
	startup := s.startup
	s.mu.Unlock()

	go s.readLines(ctx, conn)

	select {
	case <-first:
		return nil
	case <-time.After(startup):
		_ = s.Close()
		return fmt.Errorf("%w: no data on %s within %v", baro.ErrSensorAbsent, s.port, startup)
	}
}

// Close closes the port and stops the reader.
func (s *Serial) Close() error {
	s.mu.Lock()
	conn := s.conn
	cancel := s.cancel
	done := s.done
	s.conn = nil
	s.cancel = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	cancel()
	err := conn.Close()
	<-done
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Read returns the most recent pressure. A line is used once; a missing or
// stale line is a read error.
func (s *Serial) Read() (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return 0, fmt.Errorf("%w: not connected", baro.ErrSensorRead)
	}
	if s.received.IsZero() || s.consumed || time.Since(s.received) > s.timeout {
		return 0, fmt.Errorf("%w: no fresh sample", baro.ErrSensorRead)
	}
	s.consumed = true
	if s.latest.Err {
		return 0, fmt.Errorf("%w: device reported error at %d ms", baro.ErrSensorRead, s.latest.Millis)
	}
	return baro.CheckPressure(s.latest.Pressure)
}

// readLines reads lines from the serial port and keeps the latest parsed one.
func (s *Serial) readLines(ctx context.Context, r io.Reader) {
	defer close(s.done)
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic in serial reader", "panic", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		line, err := diag.Parse(text)
		if err != nil {
			s.logger.Debug("failed to parse line", "line", text, "error", err)
			continue
		}

		s.mu.Lock()
		s.latest = line
		s.received = time.Now()
		s.consumed = false
		first, once := s.first, s.firstOne
		s.mu.Unlock()

		once.Do(func() { close(first) })
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("error reading from serial port", "error", err)
	}
}
