package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveTaskDuration("site", "pages", 150*time.Millisecond)
	pr.IncTaskResult("site", "pages", ResultSuccess)
	pr.ObserveBuildDuration("site", 500*time.Millisecond)
	pr.IncBuildOutcome("site", BuildOutcomeSuccess)
	pr.AddFilesWritten("site", 3)
	pr.AddFilesWritten("site", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 5)
	require.InDelta(t, 1, testutil.ToFloat64(pr.taskResults.WithLabelValues("site", "pages", "success")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(pr.filesWritten.WithLabelValues("site")), 0)
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	require.NotPanics(t, func() {
		pr.ObserveTaskDuration("site", "pages", time.Second)
		pr.IncBuildOutcome("site", BuildOutcomeFailed)
	})
}

func TestTaskObserver(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	o := &TaskObserver{Pipeline: "legacy", Recorder: pr}
	o.OnTaskStart("js")
	o.OnTaskComplete("js", time.Millisecond, nil)
	o.OnTaskComplete("css:styles", time.Millisecond, errors.New("boom"))
	o.OnTaskSkipped("build")

	require.InDelta(t, 1, testutil.ToFloat64(pr.taskResults.WithLabelValues("legacy", "js", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.taskResults.WithLabelValues("legacy", "css:styles", "failed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.taskResults.WithLabelValues("legacy", "build", "skipped")), 0)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncBuildOutcome("site", BuildOutcomeCanceled)

	path := filepath.Join(t.TempDir(), "build.prom")
	require.NoError(t, WriteTextfile(path, reg))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `sitebuilder_build_outcomes_total{outcome="canceled",pipeline="site"} 1`)
}
