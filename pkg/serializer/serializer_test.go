package serializer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string            `json:"name" yaml:"name"`
	Score int               `json:"score" yaml:"score"`
	Tags  map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(context.Background(), sample{Name: "host-1", Score: 85}))
	assert.Contains(t, buf.String(), `"name": "host-1"`)
	assert.Contains(t, buf.String(), `"score": 85`)
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(context.Background(), sample{Name: "host-1", Score: 85}))
	assert.Contains(t, buf.String(), "name: host-1")
	assert.Contains(t, buf.String(), "score: 85")
}

func TestWriterTableFlattens(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	defer w.Close()

	doc := sample{Name: "host-1", Score: 85, Tags: map[string]string{"env": "prod"}}
	require.NoError(t, w.Serialize(context.Background(), doc))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Tags.env")
	assert.Contains(t, out, "prod")
}

func TestWriterUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	defer w.Close()

	require.NoError(t, w.Serialize(context.Background(), sample{Name: "n"}))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestNewFileWriterOrStdoutRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.yaml")
	w := NewFileWriterOrStdout(FormatYAML, path)
	require.NoError(t, w.Serialize(context.Background(), sample{Name: "host-1", Score: 42}))
	if c, ok := w.(Closer); ok {
		require.NoError(t, c.Close())
	}

	r, err := NewFileReaderAuto(path)
	require.NoError(t, err)
	defer r.Close()

	var got sample
	require.NoError(t, r.Deserialize(&got))
	assert.Equal(t, "host-1", got.Name)
	assert.Equal(t, 42, got.Score)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("out.json"))
	assert.Equal(t, FormatYAML, FormatFromPath("out.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("out.yml"))
	assert.Equal(t, FormatTable, FormatFromPath("out.txt"))
	assert.Equal(t, FormatJSON, FormatFromPath("out.bin"))
}

func TestReaderRejectsTableFormat(t *testing.T) {
	_, err := NewReader(FormatTable, strings.NewReader("x"))
	require.Error(t, err)
}

func TestReaderJSON(t *testing.T) {
	r, err := NewReader(FormatJSON, strings.NewReader(`{"name":"host-1","score":7}`))
	require.NoError(t, err)

	var got sample
	require.NoError(t, r.Deserialize(&got))
	assert.Equal(t, 7, got.Score)
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewFileReader(FormatJSON, filepath.Join(os.TempDir(), "does-not-exist-fleetscout.json"))
	require.Error(t, err)
}
