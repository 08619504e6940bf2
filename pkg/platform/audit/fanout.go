package audit

import "context"

// FanoutPublisher emits each event to every underlying publisher. The first
// error is returned after all sinks have been attempted, so one slow or
// broken sink cannot starve the others.
type FanoutPublisher struct {
	sinks []Publisher
}

func NewFanout(sinks ...Publisher) *FanoutPublisher {
	return &FanoutPublisher{sinks: sinks}
}

func (p *FanoutPublisher) Emit(ctx context.Context, event Event) error {
	var first error
	for _, sink := range p.sinks {
		if err := sink.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
