package channel

// Conn is an ordered, bidirectional, message-oriented channel to one client.
// *websocket.Conn satisfies it. ReadJSON is called from one goroutine and
// WriteJSON from another; Close may be called from any goroutine.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}
