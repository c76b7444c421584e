package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vsinha/clem/pkg/application/dto"
)

const dateLayout = "2006-01-02"

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration
	Scenario  string
}

// Report is the serialisable view of a run
type Report struct {
	RunID      string             `json:"run_id"`
	Scenario   string             `json:"scenario"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Timesteps  int                `json:"timesteps"`
	Balances   map[string]float64 `json:"balances"`
	Outcomes   []OutcomeRow       `json:"outcomes"`
	Shortfalls []ShortfallRow     `json:"shortfalls,omitempty"`
	Coverage   []CoverageRow      `json:"coverage,omitempty"`
	Events     map[string]int     `json:"events,omitempty"`
}

// OutcomeRow is one activity's status for one timestep
type OutcomeRow struct {
	Timestep string `json:"timestep"`
	Activity string `json:"activity"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// ShortfallRow is one request that was not fully provided
type ShortfallRow struct {
	Timestep string  `json:"timestep"`
	Activity string  `json:"activity"`
	Resource string  `json:"resource"`
	Required float64 `json:"required"`
	Provided float64 `json:"provided"`
}

// CoverageRow totals one short resource over all activities in a timestep
type CoverageRow struct {
	Timestep string  `json:"timestep"`
	Resource string  `json:"resource"`
	Required float64 `json:"required"`
	Provided float64 `json:"provided"`
	Requests int     `json:"requests"`
	Ratio    float64 `json:"ratio"`
}

// NewReport flattens a run result
func NewReport(result *dto.RunResult, scenario string) Report {
	r := Report{
		RunID:     result.RunID.String(),
		Scenario:  scenario,
		Start:     result.Start.Format(dateLayout),
		End:       result.End.Format(dateLayout),
		Timesteps: result.Timesteps,
		Balances:  result.Balances,
		Events:    result.Events,
		Outcomes:  make([]OutcomeRow, 0, len(result.Outcomes)),
	}
	for _, o := range result.Outcomes {
		date := o.Timestep.Format(dateLayout)
		r.Outcomes = append(r.Outcomes, OutcomeRow{
			Timestep: date,
			Activity: o.ActivityName,
			Status:   o.Status.String(),
			Message:  o.Message,
		})
		for _, s := range o.Shortfalls {
			r.Shortfalls = append(r.Shortfalls, ShortfallRow{
				Timestep: date,
				Activity: o.ActivityName,
				Resource: s.ResourceTypeName,
				Required: s.Required,
				Provided: s.Provided,
			})
		}
	}
	for _, c := range result.Coverage {
		r.Coverage = append(r.Coverage, CoverageRow{
			Timestep: c.Timestep.Format(dateLayout),
			Resource: c.Resource,
			Required: c.Required,
			Provided: c.Provided,
			Requests: c.Requests,
			Ratio:    c.Ratio(),
		})
	}
	return r
}

// Generate writes result in the configured format. Text and JSON go to w
// unless an output directory is set; CSV always needs a directory.
func Generate(w io.Writer, result *dto.RunResult, config Config) error {
	report := NewReport(result, config.Scenario)
	switch config.Format {
	case "text":
		return generateTextOutput(w, result, report, config)
	case "json":
		return generateJSONOutput(w, report, config)
	case "csv":
		return generateCSVOutput(w, report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput prints summary tables
func generateTextOutput(w io.Writer, result *dto.RunResult, report Report, config Config) error {
	fmt.Fprintf(w, "Simulation: %s\n", report.Scenario)
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	fmt.Fprintf(w, "Period: %s to %s (%d timesteps)\n", report.Start, report.End, report.Timesteps)
	if config.Elapsed > 0 {
		fmt.Fprintf(w, "Elapsed: %v\n", config.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintln(w)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Timesteps")
	tw.AppendHeader(table.Row{"Month", "Success", "Partial", "Warning", "Critical", "Other"})
	for _, s := range result.Summaries() {
		tw.AppendRow(table.Row{s.Date.Format("2006-01"), s.Success, s.Partial, s.Warning, s.Critical, s.Skipped})
	}
	tw.Render()
	fmt.Fprintln(w)

	if len(report.Shortfalls) > 0 {
		sw := table.NewWriter()
		sw.SetOutputMirror(w)
		sw.SetTitle("Shortfalls")
		sw.AppendHeader(table.Row{"Month", "Activity", "Resource", "Required", "Provided"})
		for _, s := range report.Shortfalls {
			sw.AppendRow(table.Row{s.Timestep, s.Activity, s.Resource,
				humanize.CommafWithDigits(s.Required, 2), humanize.CommafWithDigits(s.Provided, 2)})
		}
		sw.Render()
		fmt.Fprintln(w)
	}

	if len(report.Coverage) > 0 {
		cw := table.NewWriter()
		cw.SetOutputMirror(w)
		cw.SetTitle("Resource coverage")
		cw.AppendHeader(table.Row{"Month", "Resource", "Requests", "Required", "Provided", "Coverage"})
		for _, c := range report.Coverage {
			cw.AppendRow(table.Row{c.Timestep, c.Resource, c.Requests,
				humanize.CommafWithDigits(c.Required, 2), humanize.CommafWithDigits(c.Provided, 2),
				fmt.Sprintf("%.1f%%", c.Ratio*100)})
		}
		cw.Render()
		fmt.Fprintln(w)
	}

	bw := table.NewWriter()
	bw.SetOutputMirror(w)
	bw.SetTitle("Closing balances")
	bw.AppendHeader(table.Row{"Resource", "Amount"})
	for _, name := range sortedKeys(report.Balances) {
		bw.AppendRow(table.Row{name, humanize.CommafWithDigits(report.Balances[name], 2)})
	}
	bw.Render()

	if len(report.Events) > 0 {
		fmt.Fprintln(w)
		ew := table.NewWriter()
		ew.SetOutputMirror(w)
		ew.SetTitle("Events")
		ew.AppendHeader(table.Row{"Event", "Count"})
		names := make([]string, 0, len(report.Events))
		for name := range report.Events {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ew.AppendRow(table.Row{name, humanize.Comma(int64(report.Events[name]))})
		}
		ew.Render()
	}

	if config.Verbose {
		fmt.Fprintln(w)
		ow := table.NewWriter()
		ow.SetOutputMirror(w)
		ow.SetTitle("Outcomes")
		ow.AppendHeader(table.Row{"Month", "Activity", "Status", "Message"})
		for _, o := range report.Outcomes {
			ow.AppendRow(table.Row{o.Timestep, o.Activity, o.Status, o.Message})
		}
		ow.Render()
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(w io.Writer, report Report, config Config) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err = fmt.Fprintln(w, string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "run.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(w, "JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one file per table
func generateCSVOutput(w io.Writer, report Report, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outcomesFile := filepath.Join(config.OutputDir, "outcomes.csv")
	outcomeRows := [][]string{{"timestep", "activity", "status", "message"}}
	for _, o := range report.Outcomes {
		outcomeRows = append(outcomeRows, []string{o.Timestep, o.Activity, o.Status, o.Message})
	}
	if err := writeCSV(outcomesFile, outcomeRows); err != nil {
		return fmt.Errorf("failed to write outcomes CSV: %w", err)
	}

	shortfallsFile := filepath.Join(config.OutputDir, "shortfalls.csv")
	shortfallRows := [][]string{{"timestep", "activity", "resource", "required", "provided"}}
	for _, s := range report.Shortfalls {
		shortfallRows = append(shortfallRows, []string{s.Timestep, s.Activity, s.Resource, formatFloat(s.Required), formatFloat(s.Provided)})
	}
	if err := writeCSV(shortfallsFile, shortfallRows); err != nil {
		return fmt.Errorf("failed to write shortfalls CSV: %w", err)
	}

	coverageFile := filepath.Join(config.OutputDir, "coverage.csv")
	coverageRows := [][]string{{"timestep", "resource", "requests", "required", "provided", "ratio"}}
	for _, c := range report.Coverage {
		coverageRows = append(coverageRows, []string{c.Timestep, c.Resource, strconv.Itoa(c.Requests),
			formatFloat(c.Required), formatFloat(c.Provided), formatFloat(c.Ratio)})
	}
	if err := writeCSV(coverageFile, coverageRows); err != nil {
		return fmt.Errorf("failed to write coverage CSV: %w", err)
	}

	balancesFile := filepath.Join(config.OutputDir, "balances.csv")
	balanceRows := [][]string{{"resource", "amount"}}
	for _, name := range sortedKeys(report.Balances) {
		balanceRows = append(balanceRows, []string{name, formatFloat(report.Balances[name])})
	}
	if err := writeCSV(balancesFile, balanceRows); err != nil {
		return fmt.Errorf("failed to write balances CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(w, "CSV results saved to:\n")
		fmt.Fprintf(w, "  Outcomes: %s\n", outcomesFile)
		fmt.Fprintf(w, "  Shortfalls: %s\n", shortfallsFile)
		fmt.Fprintf(w, "  Coverage: %s\n", coverageFile)
		fmt.Fprintf(w, "  Balances: %s\n", balancesFile)
	}
	return nil
}

func writeCSV(filename string, rows [][]string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
