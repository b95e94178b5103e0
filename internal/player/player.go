package player

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Player is one seat in a room. ID is an opaque token scoped to the live
// connection, not an account identity. Avatar and Name are display-only and
// immutable for the player's lifetime.
type Player struct {
	ID     string
	Avatar string
	Name   string
	Ready  bool
	Conn   Connection
}

// New creates a player for a freshly matched connection. Ready starts false
// and is set exactly once by the ready signal.
func New(id, avatar, name string, conn Connection) *Player {
	return &Player{ID: id, Avatar: avatar, Name: name, Conn: conn}
}
