// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys shared by the avatar components.
const (
	AvatarElementKey = "avatar.element"
	AvatarLocatorKey = "avatar.locator"

	MediaCodecKey      = "media.codec"
	MediaContainerKey  = "media.container"
	MediaResolutionKey = "media.resolution"
)

// ProbeAttributes identifies the element and candidate being probed.
func ProbeAttributes(elementID, locator string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AvatarElementKey, elementID),
		attribute.String(AvatarLocatorKey, locator),
	}
}

// MediaAttributes describes a decoded stream. Empty values are omitted.
func MediaAttributes(codec, container, resolution string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if codec != "" {
		attrs = append(attrs, attribute.String(MediaCodecKey, codec))
	}
	if container != "" {
		attrs = append(attrs, attribute.String(MediaContainerKey, container))
	}
	if resolution != "" {
		attrs = append(attrs, attribute.String(MediaResolutionKey, resolution))
	}
	return attrs
}
