package archive

import (
	"os"
	"path/filepath"
	"testing"

	"fitsink/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RestoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive", "nested")
	conf := archiveConfig(dir, true)
	a := NewArchiver(conf, &testutil.MockLogger{}, &testutil.MockCompressor{})

	s := NewScheduler(conf, &testutil.MockLogger{}, a)
	require.NoError(t, s.Restore())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestScheduler_RestoreDisabledIsNoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never-created")
	conf := archiveConfig(dir, false)
	a := NewArchiver(conf, &testutil.MockLogger{}, &testutil.MockCompressor{})

	s := NewScheduler(conf, &testutil.MockLogger{}, a)
	require.NoError(t, s.Restore())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestScheduler_PersistFlushesBuffer(t *testing.T) {
	dir := t.TempDir()
	conf := archiveConfig(dir, true)
	a := NewArchiver(conf, &testutil.MockLogger{}, &testutil.MockCompressor{})
	a.Append("vital", "user.connected", []byte(`{}`))

	s := NewScheduler(conf, &testutil.MockLogger{}, a)
	require.NoError(t, s.Persist())

	assert.Zero(t, a.Size())
	batches, err := filepath.Glob(filepath.Join(dir, "*.json.zst"))
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestScheduler_PersistDisabledIsNoop(t *testing.T) {
	conf := archiveConfig(t.TempDir(), false)
	a := NewArchiver(conf, &testutil.MockLogger{}, &testutil.MockCompressor{})

	s := NewScheduler(conf, &testutil.MockLogger{}, a)
	require.NoError(t, s.Persist())
}

func TestScheduler_InitAndStopDisabled(t *testing.T) {
	conf := archiveConfig(t.TempDir(), false)
	a := NewArchiver(conf, &testutil.MockLogger{}, &testutil.MockCompressor{})

	s := NewScheduler(conf, &testutil.MockLogger{}, a)
	s.Init()
	s.Stop() // must not panic without a started cron
}
