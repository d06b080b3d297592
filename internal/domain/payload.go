package domain

import (
	"regexp"
	"strings"
)

// locationCodePattern matches warehouse slot labels like "A-01-03":
// one uppercase letter, two digits, two digits, hyphen-separated.
var locationCodePattern = regexp.MustCompile(`^[A-Z]-\d{2}-\d{2}$`)

// CompositePayload is the decoded form of a composite QR payload
// "SKU|LOCATION|VARIANT". Location and Variant are empty when absent.
type CompositePayload struct {
	SKU      string `json:"sku"`
	Location string `json:"location,omitempty"`
	Variant  string `json:"variant,omitempty"`
}

// ParseComposite decodes a pipe-delimited QR payload. A raw string without a
// pipe is a plain barcode: the whole string is the SKU. Segment 1 is kept as
// the location only when it matches the slot-label pattern; a malformed
// location is dropped rather than propagated. Segment 2 is the variant,
// verbatim. Plain 1D barcodes never contain a pipe and pass through unchanged.
func ParseComposite(raw string) CompositePayload {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "|") {
		return CompositePayload{SKU: raw}
	}

	segments := strings.Split(raw, "|")
	payload := CompositePayload{SKU: strings.TrimSpace(segments[0])}

	if len(segments) > 1 {
		location := strings.TrimSpace(segments[1])
		if locationCodePattern.MatchString(location) {
			payload.Location = location
		}
	}
	if len(segments) > 2 {
		payload.Variant = segments[2]
	}
	return payload
}

// IsValidLocationCode reports whether code is a well-formed slot label.
func IsValidLocationCode(code string) bool {
	return locationCodePattern.MatchString(code)
}
