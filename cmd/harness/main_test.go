package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/harness/api"
	"github.com/programme-lv/harness/internal/environment"
	"github.com/programme-lv/harness/internal/fixture"
	"github.com/programme-lv/harness/internal/launcher"
	"github.com/programme-lv/harness/internal/runner"
	"github.com/stretchr/testify/require"
)

func TestWriteReportsZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json.zst")
	report := &api.Report{SuiteId: "s1", Total: 1, Passed: 1, Records: []api.RunRecord{{Fixture: "a"}}}
	require.NoError(t, writeReports(path, []*api.Report{report}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	plain, err := dec.DecodeAll(data, nil)
	require.NoError(t, err)

	var got api.Report
	require.NoError(t, json.Unmarshal(plain, &got))
	require.Equal(t, "s1", got.SuiteId)
	require.Equal(t, "a", got.Records[0].Fixture)
}

func TestWriteReportsZstdReadsBackAsGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json.zst")
	require.NoError(t, writeReports(path, []*api.Report{{SuiteId: "x"}, {SuiteId: "y"}}))

	plain, err := fixture.ReadGolden(path)
	require.NoError(t, err)
	var got []api.Report
	require.NoError(t, json.Unmarshal(plain, &got))
	require.Len(t, got, 2)
	require.Equal(t, "y", got[1].SuiteId)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncodeReportReportsFlushError(t *testing.T) {
	// the encoder buffers small payloads, so the failure only surfaces on Close
	err := encodeReport(failingWriter{}, true, []byte(`{"suite_id":"s"}`))
	require.ErrorContains(t, err, "disk full")

	err = encodeReport(failingWriter{}, false, []byte("{}"))
	require.ErrorContains(t, err, "disk full")
}

func TestWriteReportsPlainArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, writeReports(path, []*api.Report{{SuiteId: "a"}, {SuiteId: "b"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []api.Report
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
}

func TestMergeReports(t *testing.T) {
	all := mergeReports([]*api.Report{
		{Total: 2, Passed: 2},
		{Total: 3, Passed: 1, Failed: 1, Errored: 1},
	})
	require.Equal(t, 5, all.Total)
	require.Equal(t, 3, all.Passed)
	require.False(t, all.Ok())
	require.Error(t, exitFor(all))
	require.NoError(t, exitFor(&api.Report{Total: 1, Passed: 1}))
}

func TestHandleRequest(t *testing.T) {
	r := runner.New(runner.Config{Parallel: 1})

	rec := handleRequest(context.Background(), r, []byte("{not json"))
	require.Equal(t, api.OutcomeError, rec.Verdict.Outcome)
	require.Contains(t, *rec.Error, "failed to unmarshal request")

	rec = handleRequest(context.Background(), r, []byte(`{"name":"empty"}`))
	require.Equal(t, "empty", rec.Fixture)
	require.Equal(t, api.OutcomeError, rec.Verdict.Outcome)

	body := `{"name":"echo","path":"sh","args":["-c","echo hi"],"timeout_ms":5000,
		"expect":{"stdout":"hi\n","exit_code":0}}`
	rec = handleRequest(context.Background(), r, []byte(body))
	require.Equal(t, api.OutcomePass, rec.Verdict.Outcome, rec.Verdict.Diff)
	require.Equal(t, "hi\n", rec.Stdout)
}

func TestServeLoopLetsInFlightRunsFinish(t *testing.T) {
	r := runner.New(runner.Config{Parallel: 1})
	body := `{"name":"slow","path":"sh","args":["-c","sleep 0.5; echo done"],"timeout_ms":5000,
		"expect":{"stdout":"done\n","exit_code":0}}`
	msgs := make(chan *nats.Msg, 1)
	msgs <- &nats.Msg{Data: []byte(body)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	go func() {
		<-started
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	var rec api.RunRecord
	stopped := false
	serveLoop(ctx, msgs, 1, func(runCtx context.Context, msg *nats.Msg) {
		close(started)
		rec = handleRequest(runCtx, r, msg.Data)
	}, func() { stopped = true })

	require.True(t, stopped)
	require.Equal(t, "completed", rec.State)
	require.Equal(t, api.OutcomePass, rec.Verdict.Outcome, rec.Verdict.Diff)
	require.GreaterOrEqual(t, rec.WallMillis, int64(400))
}

func TestSuiteFixturesInheritEnvLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.toml")
	doc := "[[fixtures]]\nname = \"a\"\ncommand = [\"true\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	env := &environment.EnvConfig{Timeout: 3 * time.Second, MaxBytes: 128}
	fixtures, err := fixture.LoadWithBase(path, baseLimits(env))
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, fixtures[0].Limits.Timeout)
	require.EqualValues(t, 128, fixtures[0].Limits.MaxStdoutBytes)
	require.EqualValues(t, 128, fixtures[0].Limits.MaxStderrBytes)

	// unset variables keep the built-in defaults
	require.Equal(t, launcher.DefaultLimits(), baseLimits(&environment.EnvConfig{}))
}
