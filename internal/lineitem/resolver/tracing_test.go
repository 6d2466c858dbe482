package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/medbill/internal/lineitem/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestResolve_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	inSpan := mock.MatchedBy(func(ctx context.Context) bool {
		return trace.SpanFromContext(ctx).SpanContext().IsValid()
	})
	catalog := new(mockCatalog)
	catalog.On("Lookup", inSpan, mock.Anything, "MAT-001").Return(screwFields, nil).Once()
	catalog.On("Lookup", inSpan, mock.Anything, "DOWN").Return(domain.MasterFields{}, errors.New("timeout")).Once()

	r := newResolver(catalog)
	_, err := r.Resolve(context.Background(), "mat-001", domain.Scope{HospitalID: "H1"})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "down", domain.Scope{HospitalID: "H1"})
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "lineitem.resolve", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	catalog.AssertExpectations(t)
}
