package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  bool
	}{
		{
			name:     "single target",
			input:    "host-1",
			expected: []string{"host-1"},
		},
		{
			name:     "multiple with whitespace",
			input:    " host-1 , host-2,host-3 ",
			expected: []string{"host-1", "host-2", "host-3"},
		},
		{
			name:     "duplicates collapsed",
			input:    "host-1,host-1,host-2",
			expected: []string{"host-1", "host-2"},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only separators",
			input:   ", ,,",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets, err := ParseList(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			ids := make([]string, len(targets))
			for i, tgt := range targets {
				ids[i] = tgt.ID
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestLoadList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	content := "# fleet hosts\nhost-1\nhost-2 site=west\n\nhost-1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	targets, err := LoadList(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "host-1", targets[0].ID)
	assert.Equal(t, "host-2", targets[1].ID)
}

func TestLoadListErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadList("/nonexistent/targets")
		assert.Error(t, err)
	})

	t.Run("only comments", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "targets.txt")
		require.NoError(t, os.WriteFile(path, []byte("# nothing here\n"), 0o644))
		_, err := LoadList(path)
		assert.Error(t, err)
	})
}

func TestAuthContextRedaction(t *testing.T) {
	auth := NewAuthContext("auditor", "s3cret")

	assert.Equal(t, "auditor", auth.User)
	assert.Equal(t, "s3cret", auth.Secret())

	// The secret must never leak through the string form.
	s := auth.String()
	assert.NotContains(t, s, "s3cret")
	assert.True(t, strings.Contains(s, "auditor"))
}
