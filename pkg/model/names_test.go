package model

import (
	"testing"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "docs"},
		{name: "mixed", input: "Rust-Guide_v1.2"},
		{name: "digits", input: "2024"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dotdot", input: "..", wantErr: true},
		{name: "slash", input: "a/b", wantErr: true},
		{name: "space", input: "a b", wantErr: true},
		{name: "unicode", input: "résumé", wantErr: true},
		{name: "colon", input: "a:b", wantErr: true},
		{name: "git directory", input: ".git", wantErr: true},
		{name: "put staging area", input: ".put-stage", wantErr: true},
		{name: "dot prefixed", input: ".config"},
	}

	for _, toPin := range tests {
		tt := toPin
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateName(EntityReference, tt.input)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, status.ErrInvalidName))
			assert.Contains(t, err.Error(), "reference")
		})
	}
}

func TestValidateRegistryName(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateRegistryName("team"))

	err := ValidateRegistryName("local")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidName))
	assert.Contains(t, err.Error(), "reserved")

	assert.Error(t, ValidateRegistryName("Local"))
	assert.Error(t, ValidateRegistryName("bad/name"))
}
