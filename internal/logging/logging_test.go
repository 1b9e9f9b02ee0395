package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_Level(t *testing.T) {
	t.Cleanup(func() { logrus.SetOutput(os.Stderr); logrus.SetLevel(DefaultLevel) })

	var buf bytes.Buffer
	Configure(&buf, "debug", "")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	logrus.WithField("file", "a.py").Debug("scanned")
	assert.Contains(t, buf.String(), "file=a.py")

	buf.Reset()
	Configure(&buf, "loud", "")
	assert.Equal(t, DefaultLevel, logrus.GetLevel())
	assert.Contains(t, buf.String(), "unknown log level")
}

func TestConfigure_LogFile(t *testing.T) {
	t.Cleanup(func() { logrus.SetOutput(os.Stderr); logrus.SetLevel(DefaultLevel) })

	p := filepath.Join(t.TempDir(), "knox.log")
	var buf bytes.Buffer
	Configure(&buf, "info", p)
	logrus.Info("hello")

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), "hello")
	assert.Empty(t, buf.String())
}
