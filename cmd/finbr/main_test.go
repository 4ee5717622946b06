package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/marketdata/b3"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestHolidaysCmd(t *testing.T) {
	code, out, _ := runCLI(t, "", "holidays", "2023")
	require.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "2023-01-01  Sun  Confraternização Universal", lines[0])
	assert.Equal(t, "2023-04-07  Fri  Sexta-feira Santa", lines[3])
}

func TestBusinessDaysCmd(t *testing.T) {
	code, out, _ := runCLI(t, "", "bdays", "2023")
	require.Equal(t, 0, code)
	assert.Equal(t, "249\n", out)

	code, out, _ = runCLI(t, "", "bdays", "2024", "--list")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 253)
	assert.Equal(t, "2024-01-02", lines[0])
	assert.Equal(t, "2024-12-31", lines[252])

	code, _, errOut := runCLI(t, "", "bdays", "year")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid year")
}

func TestIsBusinessDayCmd(t *testing.T) {
	_, out, _ := runCLI(t, "", "isbday", "2024-11-20")
	assert.Equal(t, "false (Dia Nacional de Zumbi e da Consciência Negra)\n", out)

	_, out, _ = runCLI(t, "", "isbday", "2024-04-24")
	assert.Equal(t, "true\n", out)

	_, out, _ = runCLI(t, "", "isbday", "2024-04-27")
	assert.Equal(t, "false\n", out)
}

func TestShiftCmd(t *testing.T) {
	_, out, _ := runCLI(t, "", "shift", "2023-12-29", "1")
	assert.Equal(t, "2024-01-02\n", out)

	code, out, errOut := runCLI(t, "", "shift", "2024-01-02", "-1")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "2023-12-29\n", out)

	code, _, errOut = runCLI(t, "", "shift", "2024-01-02", "20000000")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "date out of range")
}

func TestCountCmd(t *testing.T) {
	_, out, _ := runCLI(t, "", "count", "2023-11-01", "2023-11-30")
	assert.Equal(t, "20\n", out)

	_, out, _ = runCLI(t, "", "count", "2023-01-01", "2025-12-31")
	assert.Equal(t, "754\n", out)
}

func TestDI1Cmds(t *testing.T) {
	_, out, _ := runCLI(t, "", "di1", "maturity", "DI1F30", "--as-of", "2024-04-24")
	assert.Equal(t, "2030-01-02  business_days=1424  calendar_days=2079\n", out)

	code, out, errOut := runCLI(t, "", "di1", "price", "DI1F30", "0.114", "--as-of", "2024-04-24")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "54332.72")
	assert.Contains(t, out, "2030-01-02")

	_, out, _ = runCLI(t, "", "di1", "rate", "DI1F30", "54332.72", "--as-of", "2024-04-24")
	assert.Contains(t, out, "0.11400")

	_, out, _ = runCLI(t, "", "di1", "dv01", "DI1F30", "11.56%", "--as-of", "2024-04-24")
	assert.Equal(t, "27.29\n", out)

	_, out, _ = runCLI(t, "", "di1", "listed", "3", "--as-of", "2024-04-24")
	assert.Equal(t, "DI1K24\nDI1M24\nDI1N24\n", out)
}

func TestDI1PriceJSON(t *testing.T) {
	code, out, _ := runCLI(t, "", "di1", "price", "DI1F30", "0.114", "--as-of", "2024-04-24", "--json")
	require.Equal(t, 0, code)

	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, 54332.72, q["unit_price"])
	assert.Equal(t, float64(1424), q["business_days"])
}

func TestDI1Errors(t *testing.T) {
	code, _, errOut := runCLI(t, "", "di1", "price", "DI1A30", "0.1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid ticker")

	code, _, errOut = runCLI(t, "", "di1", "price", "DI1F30", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "rate must be a number")

	code, _, errOut = runCLI(t, "", "di1", "rate", "DI1F24", "99000", "--as-of", "2024-01-02")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "undefined rate")

	code, _, _ = runCLI(t, "", "nope")
	assert.Equal(t, 1, code)
}

func TestStripCmd_Feed(t *testing.T) {
	code, out, errOut := runCLI(t, "", "di1", "strip", "--feed", "--as-of", "2024-04-24")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 11)
	assert.True(t, strings.HasPrefix(lines[0], "TICKER"))
	assert.True(t, strings.HasPrefix(lines[1], "DI1N24"))
	assert.Contains(t, out, "54332.72")

	code, _, errOut = runCLI(t, "", "di1", "strip", "--feed", "--as-of", "2024-04-25")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no settlement strip")
}

func TestStripCmd_Stdin(t *testing.T) {
	in := `{"as_of":"2024-04-24","rates":{"DI1F26":0.11,"DI1F25":"10.5%"}}`
	code, out, errOut := runCLI(t, in, "di1", "strip", "--json")
	require.Equal(t, 0, code, errOut)

	var resp struct {
		AsOf   string           `json:"as_of"`
		Quotes []map[string]any `json:"quotes"`
		Curve  []map[string]any `json:"curve"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "2024-04-24", resp.AsOf)
	require.Len(t, resp.Quotes, 2)
	assert.Equal(t, "DI1F25", resp.Quotes[0]["ticker"])
	assert.Equal(t, 0.105, resp.Quotes[0]["rate"])
	assert.Len(t, resp.Curve, 3)

	code, _, _ = runCLI(t, `{"rates":{}}`, "di1", "strip")
	assert.Equal(t, 1, code)
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finbr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pricing:
  as_of: "2024-04-24"
calendar:
  extra_holidays: ["2024-12-31"]
`), 0o600))

	_, out, _ := runCLI(t, "", "--config", path, "bdays", "2024")
	assert.Equal(t, "252\n", out)

	// pricing.as_of pins the reference date.
	_, out, _ = runCLI(t, "", "--config", path, "di1", "maturity", "DI1F30")
	assert.Equal(t, "2030-01-02  business_days=1424  calendar_days=2079\n", out)

	code, _, errOut := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "bdays", "2024")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "failed to load config")
}

func TestNewScheduler(t *testing.T) {
	a := &app{stdin: strings.NewReader(""), stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, now: time.Now}
	require.NoError(t, a.setup(newRootCmd(a), nil))

	sched, snapshots, err := a.newScheduler(b3.DefaultSettlementFeed(), calendar.Date(2024, 4, 24))
	require.NoError(t, err)
	assert.Equal(t, 2, sched.Entries())

	snap, ok := snapshots.Latest()
	require.True(t, ok)
	assert.Equal(t, calendar.Date(2024, 4, 24), snap.AsOf)

	a.cfg.Scheduler.SettlementSchedule = "every day"
	_, _, err = a.newScheduler(b3.DefaultSettlementFeed(), time.Time{})
	assert.Error(t, err)
}
