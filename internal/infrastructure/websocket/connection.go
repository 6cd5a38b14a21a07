package websocket

import (
	"errors"
	"sync"
	"time"

	"art-market/pkg/utils"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("connection closed")

// Connection wraps a gorilla websocket connection with the write
// serialization the library requires and a liveness flag so sends after
// close fail fast instead of racing the transport.
type Connection struct {
	conn         *websocket.Conn
	id           string
	userID       string
	key          string
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  bool
}

func NewConnection(conn *websocket.Conn, userID, key string, writeTimeout time.Duration) *Connection {
	return &Connection{
		conn:         conn,
		id:           utils.GenerateID("conn"),
		userID:       userID,
		key:          key,
		writeTimeout: writeTimeout,
	}
}

func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return errConnClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	c.writeMu.Unlock()

	return c.conn.Close()
}

func (c *Connection) ID() string     { return c.id }
func (c *Connection) UserID() string { return c.userID }
func (c *Connection) Key() string    { return c.key }
