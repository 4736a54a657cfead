package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
dns:
  inets:
    - "0.0.0.0:53"
  tcp_timeout: 10s
  nameservers:
    - "ns1.example.com."
  soa_master: "ns1.example.com."
  soa_responsible: "hostmaster.example.com."
  soa_refresh: 7200
  soa_retry: 3600
  soa_expire: 1209600
  soa_ttl: 3600
  record_ttl: 3600
  zone:
    example.com.: {}
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.0.0.0:53"}, cfg.DNS.Inets)
	assert.Equal(t, "ns1.example.com.", cfg.DNS.SOAMaster)
	assert.Contains(t, cfg.DNS.Zone, "example.com.")
}

func TestLoadRejectsMissingZones(t *testing.T) {
	path := writeTempConfig(t, `
dns:
  soa_master: "ns1.example.com."
  soa_responsible: "hostmaster.example.com."
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingSOA(t *testing.T) {
	path := writeTempConfig(t, `
dns:
  zone:
    example.com.: {}
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
