package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/inkwell/internal/common"
)

func newTestStore(t *testing.T) *Service {
	t.Helper()
	root := t.TempDir()
	s := NewService(common.StorageConfig{
		UploadsDir: filepath.Join(root, "uploads"),
		OutputsDir: filepath.Join(root, "outputs"),
	}, arbor.NewLogger())
	require.NoError(t, s.EnsureDirs())
	return s
}

func TestEnsureDirs(t *testing.T) {
	s := newTestStore(t)
	for _, dir := range s.Dirs() {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	// Idempotent
	assert.NoError(t, s.EnsureDirs())
}

func TestStageUpload(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name     string
		filename string
		wantBase string
	}{
		{name: "plain name", filename: "report.pdf", wantBase: "report.pdf"},
		{name: "directories stripped", filename: "nested/dir/notes.docx", wantBase: "notes.docx"},
		{name: "traversal stripped", filename: "../../etc/passwd.pdf", wantBase: "passwd.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := s.StageUpload(tt.filename, strings.NewReader("content"))
			require.NoError(t, err)

			assert.Equal(t, s.uploadsDir, filepath.Dir(path))
			assert.True(t, strings.HasSuffix(filepath.Base(path), "_"+tt.wantBase))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "content", string(data))
		})
	}
}

func TestStageUpload_SameNameDoesNotCollide(t *testing.T) {
	s := newTestStore(t)

	first, err := s.StageUpload("same.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := s.StageUpload("same.pdf", strings.NewReader("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestStageUpload_InvalidNames(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"", ".", "..", "/", "../.."} {
		_, err := s.StageUpload(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestCreateOutputAndRemove(t *testing.T) {
	s := newTestStore(t)

	f, err := s.CreateOutput("report", ".png")
	require.NoError(t, err)
	_, err = f.WriteString("png")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, s.outputsDir, filepath.Dir(f.Name()))
	assert.True(t, strings.HasSuffix(f.Name(), "_report.png"))

	s.Remove(f.Name())
	_, err = os.Stat(f.Name())
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Removing twice or removing nothing is quiet
	s.Remove(f.Name())
	s.Remove("")
}

func TestJanitor_Sweep(t *testing.T) {
	s := newTestStore(t)
	j := NewJanitor(s, 30*time.Minute, arbor.NewLogger())

	now := time.Now()
	stale, err := s.StageUpload("stale.pdf", strings.NewReader("old"))
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(stale, now.Add(-time.Hour), now.Add(-time.Hour)))

	out, err := s.CreateOutput("stale", ".pdf")
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.NoError(t, os.Chtimes(out.Name(), now.Add(-time.Hour), now.Add(-time.Hour)))

	fresh, err := s.StageUpload("fresh.pdf", strings.NewReader("new"))
	require.NoError(t, err)

	assert.Equal(t, 2, j.Sweep(now))

	_, err = os.Stat(stale)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(out.Name())
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestJanitor_StartStop(t *testing.T) {
	s := newTestStore(t)

	disabled := NewJanitor(s, 0, arbor.NewLogger())
	require.NoError(t, disabled.Start("@every 1m"))
	disabled.Stop()

	j := NewJanitor(s, time.Minute, arbor.NewLogger())
	assert.Error(t, j.Start("not a schedule"))

	require.NoError(t, j.Start("@every 1h"))
	j.Stop()
}
