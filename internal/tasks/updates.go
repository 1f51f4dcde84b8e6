package tasks

import (
	"github.com/desertthunder/mist/internal/models"
)

// Event is a progress notification from a batch. The set of implementations is closed;
// consumers switch on the concrete type.
type Event interface {
	event()
}

// BatchStarted opens a batch of Total items.
type BatchStarted struct {
	RunID  string
	Remote string
	Total  int
}

// ItemStarted is sent when a worker picks up an item.
type ItemStarted struct {
	ID    string
	Title string
}

// ItemProgress reports bytes transferred for an item. Total is 0 when unknown.
type ItemProgress struct {
	ID         string
	Downloaded int64
	Total      int64
}

// ItemFinished reports a completed item; Done counts finished items so far.
type ItemFinished struct {
	ID    string
	Title string
	Path  string
	Done  int
	Total int
}

// ItemFailed reports an item that failed or was stopped.
type ItemFailed struct {
	ID    string
	Err   error
	Done  int
	Total int
}

// BatchFinished closes a batch.
type BatchFinished struct {
	RunID   string
	Outcome models.Outcome
	Fetched int
	Failed  int
	Total   int
}

func (BatchStarted) event()  {}
func (ItemStarted) event()   {}
func (ItemProgress) event()  {}
func (ItemFinished) event()  {}
func (ItemFailed) event()    {}
func (BatchFinished) event() {}

// sendProgress delivers ev without blocking; events are dropped when the consumer lags.
func sendProgress(progress chan<- Event, ev Event) {
	if progress == nil {
		return
	}
	select {
	case progress <- ev:
	default:
	}
}
