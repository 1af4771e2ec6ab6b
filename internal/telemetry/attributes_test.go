// SPDX-License-Identifier: MIT

package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestBandAttributes(t *testing.T) {
	attrs := BandAttributes("clip-7", "hidden", "full", 3)
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(FeedItemIDKey, "clip-7"),
		attribute.String(FeedBandFromKey, "hidden"),
		attribute.String(FeedBandToKey, "full"),
		attribute.Int64(FeedSeqKey, 3),
	}, attrs)
}

func TestPoolAttributes_OmitsEmpty(t *testing.T) {
	assert.Len(t, PoolAttributes("exhausted", -1, ""), 1)

	attrs := PoolAttributes("evicted", 2, "clip-1")
	assert.Len(t, attrs, 3)
	assert.Equal(t, attribute.String(PoolVictimKey, "clip-1"), attrs[2])
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("boom"), "timeout")
	assert.Equal(t, attribute.Bool(ErrorKey, true), attrs[0])
	assert.Equal(t, attribute.String(ErrorTypeKey, "timeout"), attrs[1])
}
