package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentityKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		studentIdentifier string
		preferredName     string
		lastName          string
		want              IdentityKey
		wantErr           bool
	}{
		{
			name:              "identifier wins over name pair",
			studentIdentifier: "S1042",
			preferredName:     "Maya",
			lastName:          "Okafor",
			want:              "id:s1042",
		},
		{
			name:          "name pair when no identifier",
			preferredName: "Maya",
			lastName:      "Okafor",
			want:          "maya|okafor",
		},
		{
			name:              "identifier is case insensitive",
			studentIdentifier: "s1042",
			want:              "id:s1042",
		},
		{
			name:          "names normalize casing and whitespace",
			preferredName: "  MAYA  ",
			lastName:      "okafor ",
			want:          "maya|okafor",
		},
		{
			name:          "multi-word names collapse internal whitespace",
			preferredName: "Mary  Jo",
			lastName:      "van  Dyke",
			want:          "mary jo|van dyke",
		},
		{
			name:          "missing last name fails",
			preferredName: "Maya",
			wantErr:       true,
		},
		{
			name:     "missing preferred name fails",
			lastName: "Okafor",
			wantErr:  true,
		},
		{
			name:              "whitespace-only identifier falls back to names",
			studentIdentifier: "   ",
			preferredName:     "Maya",
			lastName:          "Okafor",
			want:              "maya|okafor",
		},
		{
			name:    "all empty fails",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewIdentityKey(tt.studentIdentifier, tt.preferredName, tt.lastName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityKey_SameStudentSameKey(t *testing.T) {
	t.Parallel()

	// Two records for the same real student must normalize to one key
	a, err := NewIdentityKey("", "Maya", "Okafor")
	require.NoError(t, err)
	b, err := NewIdentityKey("", " maya ", "OKAFOR")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIdentityKey_Accessors(t *testing.T) {
	t.Parallel()

	idKey, err := NewIdentityKey("S7", "", "")
	require.NoError(t, err)
	assert.True(t, idKey.HasStudentIdentifier())
	assert.Equal(t, "s7", idKey.StudentIdentifier())
	preferred, last := idKey.NameParts()
	assert.Empty(t, preferred)
	assert.Empty(t, last)

	nameKey, err := NewIdentityKey("", "Maya", "Okafor")
	require.NoError(t, err)
	assert.False(t, nameKey.HasStudentIdentifier())
	assert.Empty(t, nameKey.StudentIdentifier())
	preferred, last = nameKey.NameParts()
	assert.Equal(t, "maya", preferred)
	assert.Equal(t, "okafor", last)
}
