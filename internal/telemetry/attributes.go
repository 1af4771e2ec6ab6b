// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on feedpool spans.
const (
	FeedItemIDKey   = "feed.item_id"
	FeedCategoryKey = "feed.category"
	FeedBandFromKey = "feed.band.from"
	FeedBandToKey   = "feed.band.to"
	FeedSeqKey      = "feed.seq"

	PoolResultKey = "pool.result"
	PoolHandleKey = "pool.handle"
	PoolVictimKey = "pool.victim"

	CommandKindKey = "player.command"
	CommandIDKey   = "player.command_id"

	HTTPRouteKey = "http.route"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// BandAttributes describes one band change of an item.
func BandAttributes(itemID, from, to string, seq uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(FeedItemIDKey, itemID),
		attribute.String(FeedBandFromKey, from),
		attribute.String(FeedBandToKey, to),
		attribute.Int64(FeedSeqKey, int64(seq)),
	}
}

// PoolAttributes describes an acquisition outcome. handle < 0 and an empty
// victim are omitted.
func PoolAttributes(result string, handle int, victim string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, attribute.String(PoolResultKey, result))
	if handle >= 0 {
		attrs = append(attrs, attribute.Int(PoolHandleKey, handle))
	}
	if victim != "" {
		attrs = append(attrs, attribute.String(PoolVictimKey, victim))
	}
	return attrs
}

func CommandAttributes(kind, id string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CommandKindKey, kind),
		attribute.String(CommandIDKey, id),
	}
}

// ErrorAttributes marks a span as failed with a coarse error class.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

// RouteAttribute names the matched diagnostics route.
func RouteAttribute(pattern string) attribute.KeyValue {
	return attribute.String(HTTPRouteKey, pattern)
}
