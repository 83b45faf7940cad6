package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"docudeep/internal/config"
)

func TestTranslateErr(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey"}, ErrObjectNotFound},
		{"404 status", minio.ErrorResponse{StatusCode: http.StatusNotFound}, ErrObjectNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, nil},
		{"transport error", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateErr(tt.in)
			switch {
			case tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Equal(t, tt.in, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}

func TestNewMinIO_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIO(config.MinIOConfig{Bucket: "cases"})
	assert.ErrorContains(t, err, "minio endpoint is required")
}

func TestToObjectInfo(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	info := toObjectInfo(minio.ObjectInfo{
		Key:          "cases/c1/metadata.json",
		Size:         42,
		ETag:         "abc",
		ContentType:  "application/json",
		LastModified: now,
	})

	assert.Equal(t, "cases/c1/metadata.json", info.Key)
	assert.Equal(t, int64(42), info.Size)
	assert.Equal(t, "abc", info.ETag)
	assert.Equal(t, "application/json", info.ContentType)
	assert.Equal(t, now, info.LastModified)
}

func TestNewTracedTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	rt := newTracedTransport(http.DefaultTransport)
	assert.IsType(t, &otelhttp.Transport{}, rt)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "CaseViewer.GetDocument")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/cases/c1/metadata.json", nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	parent.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	client := spans[0]
	assert.Equal(t, "minio GET", client.Name())
	assert.Equal(t, trace.SpanKindClient, client.SpanKind())
	assert.Equal(t, parent.SpanContext().TraceID(), client.SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), client.Parent().SpanID())
}
