package protocol

import (
	"context"
	"io"
)

// Feeder reads records from a source.
// The EoF convention follows that of io.Reader:
// can either return `records, EoF` or
// `records, nil` followed by `nil/{}, EoF`
type Feeder interface {
	Feed(ctx context.Context) (recs Records, err error)
}

type FeedCloser interface {
	Feeder
	io.Closer
}

// Drainer writes records to a destination.
type Drainer interface {
	Drain(ctx context.Context, recs Records) error
}

type DrainCloser interface {
	Drainer
	io.Closer
}

type FeedDrainCloser interface {
	Feeder
	Drainer
	io.Closer
}

// Relay performs a single feed-drain step between a feeder and a drainer.
func Relay(ctx context.Context, feeder Feeder, drainer Drainer) error {
	recs, err := feeder.Feed(ctx)
	if err != nil {
		if len(recs) > 0 {
			_ = drainer.Drain(ctx, recs)
		}
		return err
	}
	return drainer.Drain(ctx, recs)
}

// PumpN relays records from feeder to drainer n times or until an error.
func PumpN(ctx context.Context, feeder Feeder, drainer Drainer, n int) (err error) {
	for err == nil && n > 0 {
		err = Relay(ctx, feeder, drainer)
		n--
	}
	return
}
