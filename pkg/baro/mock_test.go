package baro

import (
	"testing"

	"github.com/itohio/goalt/pkg/altitude"
	"github.com/itohio/goalt/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietMock() *config.MockConfig {
	return &config.MockConfig{BasePressure: 1013.25}
}

func TestMock_ReadBeforeBegin(t *testing.T) {
	m := NewMock(quietMock())
	_, err := m.Read()
	assert.ErrorIs(t, err, ErrSensorRead)
}

func TestMock_Absent(t *testing.T) {
	cfg := quietMock()
	cfg.Absent = true
	m := NewMock(cfg)
	assert.ErrorIs(t, m.Begin(), ErrSensorAbsent)
}

func TestMock_BasePressure(t *testing.T) {
	m := NewMock(quietMock())
	require.NoError(t, m.Begin())
	defer m.Close()

	p, err := m.Read()
	require.NoError(t, err)
	assert.InDelta(t, 1013.25, p, 1e-3)
}

func TestMock_SetAltitude(t *testing.T) {
	m := NewMock(quietMock())
	require.NoError(t, m.Begin())

	m.SetAltitude(35)
	assert.Equal(t, float32(35), m.Altitude())

	p, err := m.Read()
	require.NoError(t, err)
	assert.InDelta(t, 35, altitude.Convert(p, 1013.25), 0.05)
}

func TestMock_Noise(t *testing.T) {
	cfg := quietMock()
	cfg.NoiseLevel = 0.1
	m := NewMock(cfg)
	require.NoError(t, m.Begin())

	for range 100 {
		p, err := m.Read()
		require.NoError(t, err)
		assert.InDelta(t, 1013.25, p, 0.1+1e-3)
	}
}

func TestMock_Spikes(t *testing.T) {
	cfg := quietMock()
	cfg.SpikeEvery = 3
	cfg.SpikeMagnitude = 10
	m := NewMock(cfg)
	require.NoError(t, m.Begin())

	var got []float32
	for range 6 {
		p, err := m.Read()
		require.NoError(t, err)
		got = append(got, p)
	}
	assert.InDelta(t, 1003.25, got[2], 1e-3)
	assert.InDelta(t, 1003.25, got[5], 1e-3)
	assert.InDelta(t, 1013.25, got[3], 1e-3)
}

func TestMock_FailEvery(t *testing.T) {
	cfg := quietMock()
	cfg.FailEvery = 2
	m := NewMock(cfg)
	require.NoError(t, m.Begin())

	_, err := m.Read()
	assert.NoError(t, err)
	_, err = m.Read()
	assert.ErrorIs(t, err, ErrSensorRead)
	assert.Equal(t, 2, m.Reads())
}

func TestMock_Close(t *testing.T) {
	m := NewMock(nil)
	require.NoError(t, m.Begin())
	require.NoError(t, m.Close())
	_, err := m.Read()
	assert.ErrorIs(t, err, ErrSensorRead)
}

func TestCheckPressure(t *testing.T) {
	p, err := CheckPressure(1000)
	assert.NoError(t, err)
	assert.Equal(t, float32(1000), p)

	_, err = CheckPressure(-1000)
	assert.ErrorIs(t, err, ErrSensorRead)
	_, err = CheckPressure(0)
	assert.ErrorIs(t, err, ErrSensorRead)
}
