package sinks

import (
	"context"
	"sync"
	"sync/atomic"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
)

// ChannelStats counts what a Channel delivered and dropped.
type ChannelStats struct {
	RecordsSent       uint64
	RecordsDropped    uint64
	TransformsSent    uint64
	TransformsDropped uint64
}

// Channel delivers output over buffered channels. Publishing never blocks: when a channel is full
// the newest item is dropped and counted.
type Channel struct {
	records    chan odometry.Record
	transforms chan referenceframe.StampedTransform

	mu     sync.RWMutex
	closed bool

	recordsSent, recordsDropped       atomic.Uint64
	transformsSent, transformsDropped atomic.Uint64
}

// NewChannel returns a Channel whose channels hold up to capacity items each.
func NewChannel(capacity int) *Channel {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel{
		records:    make(chan odometry.Record, capacity),
		transforms: make(chan referenceframe.StampedTransform, capacity),
	}
}

// Records returns the channel odometry records are delivered on. It is closed by Close.
func (c *Channel) Records() <-chan odometry.Record {
	return c.records
}

// Transforms returns the channel transforms are delivered on. It is closed by Close.
func (c *Channel) Transforms() <-chan referenceframe.StampedTransform {
	return c.transforms
}

// PublishOdometry offers the record to the records channel.
func (c *Channel) PublishOdometry(ctx context.Context, rec odometry.Record) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.records <- rec:
		c.recordsSent.Add(1)
	default:
		c.recordsDropped.Add(1)
	}
	return nil
}

// BroadcastTransform offers the transform to the transforms channel.
func (c *Channel) BroadcastTransform(ctx context.Context, tf referenceframe.StampedTransform) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.transforms <- tf:
		c.transformsSent.Add(1)
	default:
		c.transformsDropped.Add(1)
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Channel) Stats() ChannelStats {
	return ChannelStats{
		RecordsSent:       c.recordsSent.Load(),
		RecordsDropped:    c.recordsDropped.Load(),
		TransformsSent:    c.transformsSent.Load(),
		TransformsDropped: c.transformsDropped.Load(),
	}
}

// Close closes both channels. Later publishes return ErrClosed.
func (c *Channel) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.records)
	close(c.transforms)
	return nil
}
