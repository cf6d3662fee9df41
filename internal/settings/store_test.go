package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/blurmark/internal/blur/marker"
)

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"data.json":     FormatJSON,
		"blur.TOML":     FormatTOML,
		"settings.yaml": FormatYAML,
		"settings.yml":  FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatFor(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFor("settings.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, marker.Default(), s.Config())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMergesOverDefaults(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want marker.Config
	}{
		{"json partial", "data.json", `{"blurSyntax":"||"}`, marker.Config{Start: "||", End: "!"}},
		{"json empty value", "data.json", `{"blurSyntax":"","blurEndpoint":"##"}`, marker.Config{Start: "!spoiler:", End: "##"}},
		{"toml", "blur.toml", "blurSyntax = '<<'\nblurEndpoint = '>>'\n", marker.Config{Start: "<<", End: ">>"}},
		{"yaml", "blur.yaml", "blurEndpoint: \"]]\"\n", marker.Config{Start: "!spoiler:", End: "]]"}},
		{"empty file", "data.json", "", marker.Default()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			s, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Config())
		})
	}
}

func TestLoadParseError(t *testing.T) {
	for _, tt := range []struct{ file, body string }{
		{"data.json", "{not json"},
		{"data.json", `["array"]`},
		{"blur.toml", "blurSyntax = "},
		{"blur.yaml", "blurSyntax: [unclosed"},
	} {
		path := filepath.Join(t.TempDir(), tt.file)
		require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

		_, err := Open(path)
		var perr *ParseError
		require.ErrorAs(t, err, &perr, tt.file)
		assert.Equal(t, path, perr.Path)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, file := range []string{"data.json", "blur.toml", "blur.yml"} {
		t.Run(file, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", file)
			s, err := Open(path)
			require.NoError(t, err)

			want := marker.Config{Start: "[[", End: "]]"}
			require.NoError(t, s.Save(want))
			assert.Equal(t, want, s.Config())

			reopened, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, want, reopened.Config())
		})
	}
}

func TestSaveJSONPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","blurSyntax":"x"}`), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetEnd("%%"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"theme": "dark"`)
	assert.Contains(t, string(data), `"blurSyntax": "x"`)
	assert.Contains(t, string(data), `"blurEndpoint": "%%"`)
}

func TestSetEmptyRestoresDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.SetStart("<<"))
	require.NoError(t, s.SetEnd(">>"))
	assert.Equal(t, marker.Config{Start: "<<", End: ">>"}, s.Config())

	require.NoError(t, s.SetStart(""))
	require.NoError(t, s.SetEnd(""))
	assert.Equal(t, marker.Default(), s.Config())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, marker.Default(), reopened.Config())
}

func TestSubscribe(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	var got []marker.Config
	unsubscribe := s.Subscribe(func(c marker.Config) { got = append(got, c) })

	require.NoError(t, s.SetStart("A"))
	require.NoError(t, s.SetStart("A")) // unchanged, no notification
	unsubscribe()
	require.NoError(t, s.SetStart("B"))

	assert.Equal(t, []marker.Config{{Start: "A", End: "!"}}, got)
}

func TestWatchReloadsOnExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := Open(path)
	require.NoError(t, err)

	var mu sync.Mutex
	var latest marker.Config
	s.Subscribe(func(c marker.Config) {
		mu.Lock()
		latest = c
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, 10*time.Millisecond) }()

	want := marker.Config{Start: "~~", End: "~~"}
	require.Eventually(t, func() bool {
		// rewrite until the watcher has started and picked it up
		_ = os.WriteFile(path, []byte(`{"blurSyntax":"~~","blurEndpoint":"~~"}`), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return latest == want
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, want, s.Config())
	cancel()
	require.NoError(t, <-done)
}

func TestRejectsLineBreakInMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := Open(path)
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetEnd("a\nb"), marker.ErrLineBreak)
	assert.Equal(t, marker.Default(), s.Config())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(path, []byte(`{"blurSyntax":"x\ny"}`), 0o644))
	_, err = Open(path)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, marker.ErrLineBreak)
}
