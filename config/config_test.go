package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadOrFail(t *testing.T, cfgString string) *Config {
	t.Helper()
	cfg, err := Unmarshal([]byte(cfgString))
	require.NoError(t, err)
	return cfg
}

func TestMainRequiresPath(t *testing.T) {
	_, err := Unmarshal([]byte(`main:
  branch: master
`))
	assert.Error(t, err)
}

func TestDefaultBranchFilledIn(t *testing.T) {
	cfg := loadOrFail(t, `
main:
  path: /repos/main
secondary:
- path: /repos/lib
`)
	assert.Equal(t, "/repos/main", cfg.Main.Path)
	assert.Equal(t, DefaultBranch, cfg.Main.Branch)
	require.Len(t, cfg.Secondary, 1)
	assert.Equal(t, DefaultBranch, cfg.Secondary[0].Branch)
	assert.Equal(t, "lib", cfg.Secondary[0].Name)
}

func TestExplicitBranchAndNamePreserved(t *testing.T) {
	cfg := loadOrFail(t, `
main:
  path: /repos/main
  branch: trunk
secondary:
- path: /repos/lib
  name: liblib
  branch: dev
`)
	assert.Equal(t, "trunk", cfg.Main.Branch)
	assert.Equal(t, "liblib", cfg.Secondary[0].Name)
	assert.Equal(t, "dev", cfg.Secondary[0].Branch)
}

func TestSecondaryRequiresPath(t *testing.T) {
	_, err := Unmarshal([]byte(`
main:
  path: /repos/main
secondary:
- name: lib
`))
	assert.Error(t, err)
}

func TestFilterRuleNormalizesExtensionsAndCommand(t *testing.T) {
	cfg := loadOrFail(t, `
main:
  path: /repos/main
filter_rules:
- extensions: [".PSD", "png"]
  max_bytes: 1048576
  command: "convert - -resize 50% -"
`)
	require.Len(t, cfg.FilterRules, 1)
	rule := cfg.FilterRules[0]
	assert.True(t, rule.MatchesPath("art/cover.psd"))
	assert.True(t, rule.MatchesPath("art/cover.PNG"))
	assert.False(t, rule.MatchesPath("art/cover.bmp"))
	assert.Equal(t, []string{"convert", "-", "-resize", "50%", "-"}, rule.Argv)
	assert.Equal(t, 1048576, rule.MaxBytes)
}

func TestFilterRuleEmptyExtensionsMatchesEverything(t *testing.T) {
	cfg := loadOrFail(t, `
main:
  path: /repos/main
filter_rules:
- command: "convert"
`)
	require.Len(t, cfg.FilterRules, 1)
	rule := cfg.FilterRules[0]
	assert.True(t, rule.MatchesPath("art/cover.psd"))
	assert.True(t, rule.MatchesPath("README"))
}

func TestFilterRuleRejectsEmptyExtensionEntry(t *testing.T) {
	_, err := Unmarshal([]byte(`
main:
  path: /repos/main
filter_rules:
- extensions: ["."]
  command: "convert"
`))
	assert.Error(t, err)
}

func TestFilterRuleRequiresCommand(t *testing.T) {
	_, err := Unmarshal([]byte(`
main:
  path: /repos/main
filter_rules:
- extensions: [".psd"]
`))
	assert.Error(t, err)
}
