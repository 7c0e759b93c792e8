//go:build unit

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
		Level:   logrus.InfoLevel,
		Message: "Updated switchport configuration",
		Data: logrus.Fields{
			"component":  "switchport",
			"interface":  "Ethernet2",
			"attributes": "vlan_tagging,tagged_vlans",
			"pass":       "0f8a2c1e-9b7d-4a51-8c3e-2d6f1a0b9c77",
		},
	}

	out, err := (&CompactFormatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[INFO][switchport][Ethernet2][0f8a2c1e] Updated switchport configuration (attributes=vlan_tagging,tagged_vlans)\n", string(out))

	out, err = (&CompactFormatter{ShowTime: true}).Format(&logrus.Entry{Time: entry.Time, Level: logrus.WarnLevel, Message: "x", Data: logrus.Fields{}})
	require.NoError(t, err)
	assert.Equal(t, "[15:04:05][WARNING] x\n", string(out))
}

func TestInitLogger(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		InitLogger(LogConfig{})
		assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
		assert.Equal(t, os.Stderr, Logger.Out)
	})

	t.Run("FileOutput", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "switchport.log")
		InitLogger(LogConfig{Level: "debug", Format: "simple", Output: logFile})
		WithComponentAndInterface("switchport", "Ethernet1").Info("hello")

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "[INFO][switchport][Ethernet1] hello")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		InitLogger(LogConfig{Level: "loud"})
		assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		InitLogger(LogConfig{Format: "xml"})
		assert.IsType(t, &logrus.TextFormatter{}, Logger.Formatter)
	})

	t.Run("JSON", func(t *testing.T) {
		InitLogger(LogConfig{Format: "json"})
		var buf bytes.Buffer
		Logger.SetOutput(&buf)
		WithComponent("ssh").Info("Connected to device")
		assert.Contains(t, buf.String(), `"component":"ssh"`)

		buf.Reset()
		WithInterface("Ethernet3").Warn("Skipped")
		assert.Contains(t, buf.String(), `"interface":"Ethernet3"`)

		buf.Reset()
		WithError(errors.New("link down")).Error("Pass failed")
		assert.Contains(t, buf.String(), `"error":"link down"`)
	})
}
