package cache

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// Requests and responses alternate on one connection using json.Encoder/Decoder.

type Request struct {
	Op         string `json:"op"` // "get" | "put" | "delete" | "keys" | "delete_prefix"
	Key        string `json:"key"`
	Value      []byte `json:"value,omitempty"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

type Response struct {
	OK    bool     `json:"ok"`
	Value []byte   `json:"value,omitempty"`
	Keys  []string `json:"keys,omitempty"`
	Count int      `json:"count,omitempty"`
	Error string   `json:"error,omitempty"`
}
