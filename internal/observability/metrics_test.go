package observability

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: "/api/patient/diagnocat/analyses/12/refresh"}}
	m.Client.ObserveResponse(req, &http.Response{StatusCode: http.StatusOK}, nil, 20*time.Millisecond)
	m.Upload.RecordUpload("orthanc", "success", 1024, time.Second)
	m.Session.RecordTeardown()
	m.Session.RecordBusyRejection("send")

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "scanctl_api_requests_total")
	assert.Contains(t, names, "scanctl_uploads_total")
	assert.Contains(t, names, "scanctl_session_teardowns_total")
	assert.Contains(t, names, "scanctl_busy_rejections_total")
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Upload.RecordUpload("diagnocat", "success", 2048, 3*time.Second)

	path := filepath.Join(t.TempDir(), "textfile", "scanctl.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `scanctl_upload_bytes_total{destination="diagnocat"} 2048`))

	assert.NoError(t, m.WriteTextfile(""))
}

func TestBusyRejectionsExposition(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.Session.RecordBusyRejection("refresh")
	m.Session.RecordBusyRejection("refresh")

	expected := `
# HELP scanctl_busy_rejections_total Actions rejected because the same item was already pending
# TYPE scanctl_busy_rejections_total counter
scanctl_busy_rejections_total{action="refresh"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "scanctl_busy_rejections_total"))
}
