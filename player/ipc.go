package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// ipcTimeout bounds every single read or write on the channel so a hung
// player can never stall the session loop for longer than this.
const ipcTimeout = 100 * time.Millisecond

// Channel is a client for the player's newline-delimited JSON
// request/response protocol over a unix socket. It is used synchronously,
// one outstanding request at a time.
type Channel struct {
	conn   net.Conn
	reader *bufio.Reader
}

type ipcRequest struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Error string          `json:"error"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DialChannel connects to the player socket at path.
func DialChannel(path string) (*Channel, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect to player socket: %w", err)
	}
	return &Channel{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Send issues a command without waiting for a reply.
func (c *Channel) Send(command ...any) error {
	payload, err := json.Marshal(ipcRequest{Command: command})
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	if err := c.conn.SetWriteDeadline(time.Now().Add(ipcTimeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write(payload); err != nil {
		return fmt.Errorf("write player command: %w", err)
	}
	return nil
}

// GetProperty asks the player for one property value. Any non-success
// reply, timeout or malformed line means the property is unavailable
// right now; callers skip the field for this poll.
func (c *Channel) GetProperty(name string) (json.RawMessage, error) {
	if err := c.Send("get_property", name); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(ipcTimeout)
	for {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read player response: %w", err)
		}
		var resp ipcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			return nil, fmt.Errorf("malformed player response: %w", err)
		}
		// The player interleaves asynchronous event lines with replies.
		if resp.Event != "" {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("property %s unavailable: %s", name, resp.Error)
		}
		return resp.Data, nil
	}
}

// Close closes the underlying connection.
func (c *Channel) Close() error {
	return c.conn.Close()
}
