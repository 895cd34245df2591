package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wayfinder-backend/application/services"
	"wayfinder-backend/domain/navigation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoutingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoutingDefaults_PartialFileKeepsDefaults(t *testing.T) {
	path := writeRoutingFile(t, `
router:
  not_repeat_last: 2
budget:
  max_queries: 3
`)

	loaded, err := LoadRoutingDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.Router.NotRepeatLast)
	assert.Equal(t, 3, loaded.Budget.MaxQueries)

	// Untouched knobs keep the built-in defaults.
	base := services.DefaultRoutingDefaults()
	assert.Equal(t, base.Router.PolicyOrder, loaded.Router.PolicyOrder)
	assert.Equal(t, base.Router.RepeatWindow, loaded.Router.RepeatWindow)
	assert.Equal(t, base.Budget.MaxTimeMS, loaded.Budget.MaxTimeMS)
	assert.Equal(t, base.CompassLimit, loaded.CompassLimit)
	assert.Equal(t, base.ResultTTL, loaded.ResultTTL)
}

func TestLoadRoutingDefaults_FullOverride(t *testing.T) {
	path := writeRoutingFile(t, `
router:
  policy_order: [echo, random]
  not_repeat_last: 1
  repeat_window: 5
  repeat_threshold: 0.4
  repeat_decay: 0.7
  max_visits: 2
budget:
  max_time_ms: 100
  max_queries: 4
  max_filters: 50
compass_limit: 3
echo_limit: 6
result_ttl_seconds: 60
`)

	loaded, err := LoadRoutingDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, []navigation.ProviderKind{navigation.ProviderEcho, navigation.ProviderRandom}, loaded.Router.PolicyOrder)
	assert.Equal(t, 5, loaded.Router.RepeatWindow)
	assert.Equal(t, 0.4, loaded.Router.RepeatThreshold)
	assert.Equal(t, int64(100), loaded.Budget.MaxTimeMS)
	assert.Equal(t, 3, loaded.CompassLimit)
	assert.Equal(t, 6, loaded.EchoLimit)
	assert.Equal(t, time.Minute, loaded.ResultTTL)
}

func TestLoadRoutingDefaults_UnknownPolicyName(t *testing.T) {
	path := writeRoutingFile(t, `
router:
  policy_order: [manual, psychic]
`)

	_, err := LoadRoutingDefaults(path)
	assert.Error(t, err)
}

func TestLoadRoutingDefaults_OutOfRangeValue(t *testing.T) {
	path := writeRoutingFile(t, `
router:
  repeat_threshold: 1.5
`)

	_, err := LoadRoutingDefaults(path)
	assert.Error(t, err)
}

func TestLoadRoutingDefaults_MissingFileReturnsDefaults(t *testing.T) {
	loaded, err := LoadRoutingDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.Equal(t, services.DefaultRoutingDefaults(), loaded)
}
