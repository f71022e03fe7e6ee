package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-trading/internal/logger"
	"github.com/rxtech-lab/argo-trading/internal/timeservice"
)

const testCalendarYAML = `
market_hours:
  - exchange_group: NASDAQ
    asset_class: equity
    timezone: America/New_York
    trading_days: [mon, tue, wed, thu, fri]
    regular_open: "09:30"
    regular_close: "16:00"
`

func writeTestCalendar(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "calendar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCalendarYAML), 0o644))

	return path
}

func TestOpenStoreCreatesUsableStore(t *testing.T) {
	cmd := &cli.Command{
		Flags: []cli.Flag{&cli.StringFlag{Name: "data", Value: t.TempDir()}},
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"market"}))

	store, err := openStore(cmd, logger.NewNopLogger())
	require.NoError(t, err)
	defer store.Close()
}

func TestOpenTimeServiceLoadsCalendar(t *testing.T) {
	calendarPath := writeTestCalendar(t)

	cmd := &cli.Command{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "calendar", Value: calendarPath},
			&cli.StringFlag{Name: "exchange-group", Value: "NASDAQ"},
			&cli.StringFlag{Name: "asset-class", Value: "equity"},
		},
	}
	require.NoError(t, cmd.Run(context.Background(), []string{"market"}))

	ts, err := openTimeService(cmd, timeservice.ModeBacktest, logger.NewNopLogger())
	require.NoError(t, err)
	require.Equal(t, timeservice.ModeBacktest, ts.Mode())
}

func TestPrintJSONEncodesIndented(t *testing.T) {
	var buf bytes.Buffer

	old := os.Stdout

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	require.NoError(t, printJSON(map[string]string{"a": "b"}))

	w.Close()

	os.Stdout = old

	_, err = buf.ReadFrom(r)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "b", decoded["a"])
}

func TestDeleteConfirmTokenMatchesStoreContract(t *testing.T) {
	require.Equal(t, "CONFIRM_DELETE", deleteConfirmToken)
}
