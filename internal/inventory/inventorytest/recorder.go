package inventorytest

import (
	"context"
	"sync"
)

type Sent struct {
	Room    string
	Event   string
	Payload interface{}
}

// Recorder is a notification dispatcher that keeps every event it is given.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (r *Recorder) SendToRoom(_ context.Context, room, event string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Room: room, Event: event, Payload: payload})
	return r.Err
}

func (r *Recorder) SendToRooms(ctx context.Context, rooms []string, event string, payload interface{}) error {
	for _, room := range rooms {
		if err := r.SendToRoom(ctx, room, event, payload); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Events returns the sent events with the given name.
func (r *Recorder) Events(event string) []Sent {
	var out []Sent
	for _, s := range r.Sent() {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}
