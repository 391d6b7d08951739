package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in        string
		want      Version
		wantExtra string
	}{
		{"1", Version{Major: 1, Precision: 1}, ""},
		{"1.2", Version{Major: 1, Minor: 2, Precision: 2}, ""},
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3, Precision: 3}, ""},
		{"v1.2.3", Version{Major: 1, Minor: 2, Patch: 3, Precision: 3}, ""},
		{"6.8.0-45-generic", Version{Major: 6, Minor: 8, Patch: 0, Precision: 3}, "-45-generic"},
		{"1.28.0+k3s1", Version{Major: 1, Minor: 28, Patch: 0, Precision: 3}, "+k3s1"},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want.Major, got.Major, tt.in)
		assert.Equal(t, tt.want.Minor, got.Minor, tt.in)
		assert.Equal(t, tt.want.Patch, got.Patch, tt.in)
		assert.Equal(t, tt.want.Precision, got.Precision, tt.in)
		assert.Equal(t, tt.wantExtra, got.Extras, tt.in)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "1.2.3.4", "a.b.c", "1..3"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestEqualsOrNewerRespectsPrecision(t *testing.T) {
	v := MustParse("6.8")
	assert.True(t, v.EqualsOrNewer(MustParse("6.8.0")))
	assert.True(t, v.EqualsOrNewer(MustParse("6.8.99")))
	assert.True(t, v.EqualsOrNewer(MustParse("6.7.0")))
	assert.False(t, v.EqualsOrNewer(MustParse("6.9.0")))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, MustParse("5.15.0").Compare(MustParse("6.8.0")))
	assert.Equal(t, 1, MustParse("6.8.1").Compare(MustParse("6.8.0")))
	assert.Equal(t, 0, MustParse("6.8").Compare(MustParse("6.8.7")), "lower precision wins")
}

func TestIsNewer(t *testing.T) {
	assert.True(t, MustParse("6.8.1").IsNewer(MustParse("6.8.0")))
	assert.False(t, MustParse("6.8.0").IsNewer(MustParse("6.8.0")))
	assert.False(t, MustParse("6.8").IsNewer(MustParse("6.8.5")), "equal at shared precision")
}

func TestString(t *testing.T) {
	assert.Equal(t, "6", MustParse("6").String())
	assert.Equal(t, "6.8", MustParse("6.8").String())
	assert.Equal(t, "6.8.0", MustParse("6.8.0-45-generic").String())
}

func TestIsValid(t *testing.T) {
	assert.True(t, New(1, 2, 3).IsValid())
	assert.False(t, Version{Major: 1}.IsValid(), "zero precision is invalid")
	assert.False(t, Version{Major: -1, Precision: 1}.IsValid())
}
