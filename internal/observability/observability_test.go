package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "post.create", attribute.Int("post.tags", 2))
	assert.NotNil(t, ctx)
	span.End(errors.New("boom"))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestRecordCounters(t *testing.T) {
	before := counterValue(t, LoginsTotal.WithLabelValues(LoginRejected))
	RecordLogin(LoginRejected)
	assert.Equal(t, before+1, counterValue(t, LoginsTotal.WithLabelValues(LoginRejected)))

	beforeAvatar := counterValue(t, ImagesUploadedTotal.WithLabelValues(ImageKindAvatar))
	RecordImageUpload(ImageKindAvatar)
	assert.Equal(t, beforeAvatar+1, counterValue(t, ImagesUploadedTotal.WithLabelValues(ImageKindAvatar)))

	beforePending := counterValue(t, CommentsCreatedTotal.WithLabelValues("pending"))
	RecordComment(false)
	assert.Equal(t, beforePending+1, counterValue(t, CommentsCreatedTotal.WithLabelValues("pending")))
}
