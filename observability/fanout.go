package observability

import "context"

// NoOpObserver drops every event.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// MultiObserver delivers each event to several observers in order. A
// panicking observer is skipped for that event; the rest still receive it.
type MultiObserver struct {
	sinks []Observer
}

// NewMultiObserver combines the non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, obs := range observers {
		if obs != nil {
			m.sinks = append(m.sinks, obs)
		}
	}
	return m
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, sink := range m.sinks {
		deliver(ctx, sink, event)
	}
}

func deliver(ctx context.Context, sink Observer, event Event) {
	defer func() { _ = recover() }()
	sink.OnEvent(ctx, event)
}
