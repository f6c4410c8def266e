package cache

import (
	"encoding/json"
	"errors"
	"net"
	"time"
)

// Client implements KV over a Unix socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 500 * time.Millisecond}
}

// Ping reports whether the daemon is reachable.
func (c *Client) Ping() error {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) do(req Request) (Response, error) {
	var resp Response
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return resp, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if err := json.NewEncoder(conn).Encode(&req); err != nil {
		return resp, err
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return resp, err
	}
	if !resp.OK {
		switch resp.Error {
		case ErrNotFound.Error():
			return resp, ErrNotFound
		case ErrExpired.Error():
			return resp, ErrExpired
		}
		return resp, errors.New(resp.Error)
	}
	return resp, nil
}

func (c *Client) Get(key string) ([]byte, error) {
	resp, err := c.do(Request{Op: "get", Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), resp.Value...), nil
}

func (c *Client) Put(key string, value []byte, ttl time.Duration) error {
	_, err := c.do(Request{Op: "put", Key: key, Value: value, TTLSeconds: ttlSeconds(ttl)})
	return err
}

// ttlSeconds rounds ttl up to whole seconds so a short positive TTL does not
// become "no expiry".
func ttlSeconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return int64((ttl + time.Second - 1) / time.Second)
}

func (c *Client) Delete(key string) error {
	_, err := c.do(Request{Op: "delete", Key: key})
	return err
}

func (c *Client) Keys(prefix string) ([]string, error) {
	resp, err := c.do(Request{Op: "keys", Key: prefix})
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (c *Client) DeletePrefix(prefix string) (int, error) {
	resp, err := c.do(Request{Op: "delete_prefix", Key: prefix})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}
