package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)

	assert.Equal(t, []string{"lowercase"}, cfg.Normalization)
	assert.Equal(t, "longest-wins", cfg.OverlapPolicy)
	assert.Equal(t, "bytes", cfg.Offsets)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLowercaseImplied(t *testing.T) {
	cfg, err := Parse([]byte("normalization: [greek]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"lowercase", "greek"}, cfg.Normalization,
		"case-insensitive matching prepends the lowercase step")
}

func TestCaseSensitive(t *testing.T) {
	cfg, err := Parse([]byte("case_sensitive: true\nnormalization: [greek]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"greek"}, cfg.Normalization)

	_, err = Parse([]byte("case_sensitive: true\nnormalization: [lowercase]\n"))
	assert.Error(t, err, "explicit lowercase contradicts case_sensitive")
}

func TestFullConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
normalization: [greek, unicode-NFKC]
overlap_policy: keep-all
offsets: codepoints
tokenizer:
  split_hyphen: true
dictionaries:
  - name: chebi
    path: /data/chebi.tsv
    format: "6"
    skip_header: true
    priority: 2
abbrev_detection: true
step_budget: 100000
workers: 4
cache_path: /tmp/dict.db
server:
  addr: ":9090"
`))
	require.NoError(t, err)

	assert.Equal(t, "keep-all", cfg.OverlapPolicy)
	assert.True(t, cfg.Tokenizer.SplitHyphen)
	require.Len(t, cfg.Dictionaries, 1)
	assert.Equal(t, "chebi", cfg.Dictionaries[0].Name)
	assert.Equal(t, 2, cfg.Dictionaries[0].Priority)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestRejections(t *testing.T) {
	for name, yml := range map[string]string{
		"unknown normalizer": "normalization: [frobnicate]\n",
		"unknown policy":     "overlap_policy: shortest-wins\n",
		"unknown offsets":    "offsets: utf16\n",
		"dict without path":  "dictionaries: [{name: x}]\n",
		"dict without name":  "dictionaries: [{path: /x.tsv}]\n",
		"bad dict format":    "dictionaries: [{name: x, path: /x.tsv, format: \"9\"}]\n",
		"negative budget":    "step_budget: -1\n",
		"negative workers":   "workers: -2\n",
	} {
		_, err := Parse([]byte(yml))
		assert.Error(t, err, name)
	}
}
