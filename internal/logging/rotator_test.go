package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRotatorOpensDatedFile tests initial file creation
func TestNewRotatorOpensDatedFile(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRotator(dir, "adsb_events", true, logrus.New())
	require.NoError(t, err)
	defer r.Close()

	expected := filepath.Join(dir, "adsb_events_"+time.Now().UTC().Format("2006-01-02")+".log")
	assert.Equal(t, expected, r.CurrentFile())

	_, err = os.Stat(expected)
	assert.NoError(t, err)
}

// TestRotatorWriter tests that writes land in the current file
func TestRotatorWriter(t *testing.T) {
	r, err := NewRotator(t.TempDir(), "adsb_events", true, logrus.New())
	require.NoError(t, err)
	defer r.Close()

	w, err := r.Writer()
	require.NoError(t, err)

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	content, err := os.ReadFile(r.CurrentFile())
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

// TestRotatorCreatesDirectory tests directory creation for nested paths
func TestRotatorCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	r, err := NewRotator(dir, "adsb_events", false, logrus.New())
	require.NoError(t, err)
	defer r.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestRotatorCloseInvalidatesWriter tests Writer after Close
func TestRotatorCloseInvalidatesWriter(t *testing.T) {
	r, err := NewRotator(t.TempDir(), "adsb_events", true, logrus.New())
	require.NoError(t, err)

	require.NoError(t, r.Close())
	_, err = r.Writer()
	assert.Error(t, err)
}
