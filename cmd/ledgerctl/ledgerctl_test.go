package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/jobs"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestBuildTaskKnownJobs(t *testing.T) {
	task, err := BuildTask(jobs.TaskGLIntegrity, TriggerOptions{})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskGLIntegrity, task.Type())

	task, err = BuildTask(jobs.TaskIdempotencyCleanup, TriggerOptions{Retention: time.Hour})
	require.NoError(t, err)
	var cleanup jobs.IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &cleanup))
	require.Equal(t, time.Hour, cleanup.Retention)

	task, err = BuildTask(jobs.TaskReportExport, TriggerOptions{PeriodID: 4, Actor: "ops"})
	require.NoError(t, err)
	var export jobs.ReportExportPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &export))
	require.Equal(t, int64(4), export.PeriodID)
	require.Equal(t, "ops", export.RequestedBy)
}

func TestBuildTaskRejects(t *testing.T) {
	_, err := BuildTask("mail:send", TriggerOptions{})
	require.ErrorContains(t, err, "unsupported job mail:send")

	_, err = BuildTask(jobs.TaskReportExport, TriggerOptions{})
	require.ErrorContains(t, err, "--period is required")
}

func TestCommandTree(t *testing.T) {
	want := map[string]bool{"migrate": false, "seed": false, "export": false, "jobs": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		require.True(t, found, "missing command %s", name)
	}
}

func TestExportRequiresPeriod(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"export"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.EqualError(t, err, "--period is required")
}

func TestTriggerRejectsUnknownJobBeforeConnecting(t *testing.T) {
	rootCmd.SetArgs([]string{"jobs", "trigger", "inventory:revaluation"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.ErrorContains(t, err, "unsupported job inventory:revaluation")
}
