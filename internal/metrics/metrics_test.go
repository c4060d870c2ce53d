package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Install("success")
	m.Install("success")
	m.Install("failure")
	m.Uninstall()
	m.UpgradeStaged()
	m.ScanResult("loaded")
	m.Duplicates(2)
	m.Duplicates(0)
	m.Sweep("delete")
	m.SetRegistered(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.installs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.installs.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uninstalls))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.duplicates))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.registered))
}

func TestSnapshot(t *testing.T) {
	m := New()
	m.Install("upgrade_required")
	m.SetRegistered(1)

	samples, err := m.Snapshot()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, s := range samples {
		got[s.Name+s.Labels] = s.Value
	}
	assert.Equal(t, 1.0, got["glossa_plugins_installs_total{outcome=upgrade_required}"])
	assert.Equal(t, 1.0, got["glossa_plugins_registered"])
	assert.Contains(t, got, "glossa_plugins_uninstalls_total")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Install("success")
		m.Uninstall()
		m.UpgradeStaged()
		m.ScanResult("failed")
		m.Duplicates(1)
		m.Sweep("upgrade")
		m.SetRegistered(0)
	})
	samples, err := m.Snapshot()
	assert.NoError(t, err)
	assert.Empty(t, samples)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Uninstall()

	path := filepath.Join(t.TempDir(), "glossa.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "glossa_plugins_uninstalls_total 1")
}
