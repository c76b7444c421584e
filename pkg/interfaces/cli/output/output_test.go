package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/clem/pkg/application/dto"
	"github.com/vsinha/clem/pkg/domain/entities"
	"github.com/vsinha/clem/pkg/domain/repositories"
)

func sampleResult() *dto.RunResult {
	jan := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := jan.AddDate(0, 1, 0)
	return &dto.RunResult{
		RunID:     uuid.New(),
		Start:     jan,
		End:       time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC),
		Timesteps: 2,
		Outcomes: []repositories.ActivityOutcome{
			{Timestep: jan, ActivityName: "Feed cattle", Status: entities.Success},
			{Timestep: feb, ActivityName: "Feed cattle", Status: entities.Partial, Message: "short of Hay",
				Shortfalls: []entities.ResourceRequest{{ResourceTypeName: "Hay", Required: 3000, Provided: 1250.5}}},
		},
		Balances: map[string]float64{"Hay": 0, "Bank": 12500.25},
		Events:   map[string]int{"timestep.started": 2, "resource.shortfall": 1},
		Coverage: []dto.ResourceCoverage{
			{Timestep: feb, Resource: "Hay", Required: 4000, Provided: 2250.5, Requests: 2},
		},
	}
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer

	err := Generate(&buf, sampleResult(), Config{Format: "text", Scenario: "Home paddock", Verbose: true})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Simulation: Home paddock")
	assert.Contains(t, out, "2020-01-01 to 2020-02-29 (2 timesteps)")
	assert.Contains(t, out, "12,500.25")
	assert.Contains(t, out, "1,250.5")
	assert.Contains(t, out, "short of Hay")
	assert.Contains(t, out, "Resource coverage")
	assert.Contains(t, out, "56.3%")
	events := out[strings.Index(out, "Events"):]
	assert.Less(t, strings.Index(events, "resource.shortfall"), strings.Index(events, "timestep.started"))
	balances := out[strings.Index(out, "Closing balances"):]
	assert.Less(t, strings.Index(balances, "Bank"), strings.Index(balances, "Hay"), "balances are sorted")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Generate(&buf, sampleResult(), Config{Format: "json", Scenario: "Home paddock"}))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 2, report.Timesteps)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "Partial", report.Outcomes[1].Status)
	require.Len(t, report.Shortfalls, 1)
	assert.Equal(t, "Hay", report.Shortfalls[0].Resource)
	assert.Equal(t, 12500.25, report.Balances["Bank"])
	require.Len(t, report.Coverage, 1)
	assert.Equal(t, 2, report.Coverage[0].Requests)
	assert.InDelta(t, 0.562625, report.Coverage[0].Ratio, 1e-9)
	assert.Equal(t, 1, report.Events["resource.shortfall"])
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	require.NoError(t, Generate(&buf, sampleResult(), Config{Format: "csv", OutputDir: dir}))

	balances, err := os.ReadFile(filepath.Join(dir, "balances.csv"))
	require.NoError(t, err)
	assert.Equal(t, "resource,amount\nBank,12500.25\nHay,0\n", string(balances))

	outcomes, err := os.ReadFile(filepath.Join(dir, "outcomes.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(outcomes), "2020-02-01,Feed cattle,Partial,short of Hay")

	_, err = os.Stat(filepath.Join(dir, "shortfalls.csv"))
	assert.NoError(t, err)

	coverage, err := os.ReadFile(filepath.Join(dir, "coverage.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(coverage), "2020-02-01,Hay,2,4000,2250.5,0.562625")
}

func TestGenerate_Errors(t *testing.T) {
	var buf bytes.Buffer

	assert.Error(t, Generate(&buf, sampleResult(), Config{Format: "xml"}))
	assert.Error(t, Generate(&buf, sampleResult(), Config{Format: "csv"}), "csv needs a directory")
}
