package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/infrastructure/persistence"
	"github.com/vsinha/clem/pkg/interfaces/cli/output"
)

const paddock = `
name: Paddock
start: "2020-01-01"
end: "2020-06-30"
resources:
  stores: [{name: Hay, initial: 500}]
herd:
  - {herd: Cattle, weight: 300, number: 2}
activities:
  - name: Feed
    type: RuminantFeed
    on_partial_resources: UseAvailableResources
    herd: {herd: Cattle}
    params: {feed_store: Hay, kg_per_head_per_day: 2, days_per_month: 30}
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_JSONAndPersistence(t *testing.T) {
	path := writeScenario(t, paddock)
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "run", "--scenario", path, "--format", "json", "--db", db)
	require.NoError(t, err)

	var report output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Paddock", report.Scenario)
	assert.Equal(t, 6, report.Timesteps)
	// 120 kg a month against 500 kg: four full months, then 20 kg, then nothing
	assert.InDelta(t, 0, report.Balances["Hay"], 1e-9)
	assert.NotEmpty(t, report.Shortfalls)

	store, err := persistence.Open(db)
	require.NoError(t, err)
	defer store.Close()
	ids, err := store.RunIDs(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, report.RunID, ids[0].String())
	outcomes, err := store.GetOutcomes(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Len(t, outcomes, 6)
}

func TestRun_Text(t *testing.T) {
	path := writeScenario(t, paddock)

	out, err := execute(t, "run", "--scenario", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Simulation: Paddock")
	assert.Contains(t, out, "Closing balances")
}

func TestRun_MetricsFile(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		want      string
	}{
		{"default namespace", "", "clem_simulation_activity_outcomes_total"},
		{"configured namespace", "farm", "farm_simulation_activity_outcomes_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.namespace != "" {
				t.Setenv("CLEM_METRICS_NAMESPACE", tt.namespace)
			}
			file := filepath.Join(t.TempDir(), "clem.prom")

			_, err := execute(t, "run", "--scenario", writeScenario(t, paddock), "--metrics-file", file)

			require.NoError(t, err)
			body, err := os.ReadFile(file)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.want+`{activity="Feed",status="Success"} 4`)
			assert.Contains(t, string(body), "_timesteps_total 6")
		})
	}
}

func TestRun_RequiresScenario(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		out, err := execute(t, "validate", "--scenario", writeScenario(t, paddock))
		require.NoError(t, err)
		assert.Contains(t, out, "Scenario Paddock is valid: 1 activities, 0 timers")
	})

	t.Run("structural problems are listed", func(t *testing.T) {
		path := writeScenario(t, `
name: Loop
start: "2020-01-01"
end: "2020-06-30"
activities:
  - {name: A, type: ActivityFolder, parent: B}
  - {name: B, type: ActivityFolder, parent: A}
  - {name: C, type: Juggle}
`)
		out, err := execute(t, "validate", "--scenario", path)
		require.Error(t, err)
		assert.Contains(t, out, "activity cycle detected")
		assert.Contains(t, out, "unknown type [Juggle]")
	})

	t.Run("missing resources surface when composing", func(t *testing.T) {
		path := writeScenario(t, `
name: Hungry
start: "2020-01-01"
end: "2020-06-30"
herd:
  - {herd: Cattle, weight: 300, number: 2}
activities:
  - name: Feed
    type: RuminantFeed
    herd: {herd: Cattle}
    params: {feed_store: Silage, kg_per_head_per_day: 2}
`)
		_, err := execute(t, "validate", "--scenario", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Silage")
	})
}
