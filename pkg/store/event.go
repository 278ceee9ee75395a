package store

import "sync"

// EventType identifies the mutation an Event describes.
type EventType int

const (
	EventNodeCreated EventType = iota + 1
	EventNodeUpdated
	EventNodeMoved
	EventEdgeConnected
	EventSelectionChanged
	EventDeleted
	EventCleared
	EventRestored
)

var eventNames = map[EventType]string{
	EventNodeCreated:      "node_created",
	EventNodeUpdated:      "node_updated",
	EventNodeMoved:        "node_moved",
	EventEdgeConnected:    "edge_connected",
	EventSelectionChanged: "selection_changed",
	EventDeleted:          "deleted",
	EventCleared:          "cleared",
	EventRestored:         "restored",
}

func (t EventType) String() string {
	if s, ok := eventNames[t]; ok {
		return s
	}
	return "unknown"
}

// Event describes a committed mutation.
type Event struct {
	Type EventType

	// NodeIDs and EdgeIDs name the affected elements. For EventNodeUpdated,
	// EdgeIDs lists edges pruned because the node's ports changed.
	NodeIDs []string
	EdgeIDs []string

	// Key is the parameter written by EventNodeUpdated.
	Key string
}

type observers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Event)
	ids  []int
}

func (o *observers) add(fn func(Event)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(Event))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	o.ids = append(o.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.fns, id)
			for i, v := range o.ids {
				if v == id {
					o.ids = append(o.ids[:i], o.ids[i+1:]...)
					break
				}
			}
		})
	}
}

// notify calls observers in subscription order. The observer list is copied
// first so callbacks may subscribe or unsubscribe.
func (o *observers) notify(ev Event) {
	o.mu.Lock()
	fns := make([]func(Event), 0, len(o.ids))
	for _, id := range o.ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
