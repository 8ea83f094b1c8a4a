package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsConflictingGroundingFlags(t *testing.T) {
	o := Default()
	o.Q = true
	o.QQ = true
	assert.Error(t, o.Validate())
}

func TestValidateRejectsNegativeFields(t *testing.T) {
	cases := []Options{
		{D: -1},
		{LowerD: -1},
		{QConstInstantiationLimit: -1},
	}
	for _, o := range cases {
		assert.Error(t, o.Validate())
	}
}

func TestValidateRejectsLowerDPastD(t *testing.T) {
	o := Default()
	o.D = 2
	o.LowerD = 3
	assert.Error(t, o.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_layers: 5\nverbose: true\n"), 0o644))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.D)
	assert.True(t, opts.Verbose)
	assert.Equal(t, 1.0, opts.QConstRatingFactor) // untouched default survives the merge
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
