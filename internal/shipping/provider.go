package shipping

import "context"

// TrackReq encapsulates tracking lookup parameters for a courier provider.
type TrackReq struct {
	Courier        string
	TrackingNumber string
}

// TrackEvent is a single tracking event returned by a provider.
type TrackEvent struct {
	Status      string
	Description string
	Location    string
	OccurredAt  int64
}

// Provider models a courier integration capable of fetching tracking events.
type Provider interface {
	Track(ctx context.Context, req TrackReq) ([]TrackEvent, error)
}

// StaticProvider returns a canned set of events. It backs development
// environments and tests where no courier account is configured.
type StaticProvider struct {
	Events []TrackEvent
	Err    error
}

func (p *StaticProvider) Track(ctx context.Context, req TrackReq) ([]TrackEvent, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Events, nil
}
