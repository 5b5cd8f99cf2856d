package session

import (
	"fmt"
	"strings"
)

// EventKind tags a decoded trim interaction.
type EventKind int

const (
	EventSelectStart EventKind = iota
	EventSelectEnd
	EventConfirm
	EventCancel
)

// Event is one decoded user interaction. Token carries the selected time
// offset for the select events and is ignored otherwise. The raw callback
// string is decoded exactly once, here at the boundary; everything past this
// point dispatches on the tag.
type Event struct {
	Kind  EventKind
	Token string
}

// Callback data prefixes used by the chat keyboard.
const (
	callbackStartPrefix = "cut_start_"
	callbackEndPrefix   = "cut_end_"
	callbackConfirm     = "cut_done"
	callbackCancel      = "cut_cancel"
)

// DecodeCallback turns raw chat callback data into a tagged Event.
func DecodeCallback(data string) (Event, error) {
	switch {
	case data == callbackConfirm:
		return Event{Kind: EventConfirm}, nil
	case data == callbackCancel:
		return Event{Kind: EventCancel}, nil
	case strings.HasPrefix(data, callbackStartPrefix):
		return Event{Kind: EventSelectStart, Token: strings.TrimPrefix(data, callbackStartPrefix)}, nil
	case strings.HasPrefix(data, callbackEndPrefix):
		return Event{Kind: EventSelectEnd, Token: strings.TrimPrefix(data, callbackEndPrefix)}, nil
	}
	return Event{}, fmt.Errorf("unrecognized callback data %q", data)
}
