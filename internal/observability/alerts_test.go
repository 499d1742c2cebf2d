package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertFile struct {
	Groups []struct {
		Name  string      `yaml:"name"`
		Rules []alertRule `yaml:"rules"`
	} `yaml:"groups"`
}

// Every alert must reference a metric this binary or the worker exports, and a runbook
// section that exists.
func TestAlertRulesMatchExportedMetrics(t *testing.T) {
	root := filepath.Join("..", "..")
	raw, err := os.ReadFile(filepath.Join(root, "deploy", "prometheus", "alerts", "tablero.yml"))
	require.NoError(t, err)
	runbook, err := os.ReadFile(filepath.Join(root, "docs", "runbook.md"))
	require.NoError(t, err)

	var file alertFile
	require.NoError(t, yaml.Unmarshal(raw, &file))
	require.Len(t, file.Groups, 1)
	assert.Equal(t, "tablero", file.Groups[0].Name)

	want := map[string]string{
		"HighErrorRate":        "critical",
		"HighLatency":          "warning",
		"SnapshotFetchFailing": "warning",
		"SnapshotStale":        "warning",
	}
	rules := file.Groups[0].Rules
	require.Len(t, rules, len(want))

	exported := []string{
		"tablero_http_requests_total",
		"tablero_http_request_duration_seconds",
		"tablero_snapshot_fetch_failures_total",
		"tablero_snapshot_refreshed_timestamp_seconds",
	}
	for _, rule := range rules {
		severity, ok := want[rule.Alert]
		require.True(t, ok, "unexpected rule %q", rule.Alert)
		assert.Equal(t, severity, rule.Labels["severity"], rule.Alert)
		assert.NotEmpty(t, rule.For, rule.Alert)
		assert.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
		assert.NotEmpty(t, rule.Annotations["description"], rule.Alert)

		usesMetric := false
		for _, name := range exported {
			if strings.Contains(rule.Expr, name) {
				usesMetric = true
			}
		}
		assert.True(t, usesMetric, "%s queries no exported metric", rule.Alert)

		anchor, found := strings.CutPrefix(rule.Annotations["runbook"], "docs/runbook.md#")
		require.True(t, found, rule.Alert)
		assert.Contains(t, string(runbook), "{#"+anchor+"}", rule.Alert)
	}
}
