package scan

import "time"

// Origin identifies which input adapter produced a scan
type Origin string

const (
	OriginManual Origin = "manual"
	OriginCamera Origin = "camera"
	OriginRemote Origin = "remote"
)

// Event is one raw barcode capture. It is transient: produced by an adapter,
// consumed by the pipeline, never persisted.
type Event struct {
	Barcode    string
	ReceivedAt time.Time
	Origin     Origin
}

// NewEvent creates an Event stamped with the current time
func NewEvent(barcode string, origin Origin) Event {
	return Event{
		Barcode:    barcode,
		ReceivedAt: time.Now().UTC(),
		Origin:     origin,
	}
}
