package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"time"
)

// Serve accepts connections on l and answers protocol requests against kv
// until ctx is cancelled or the listener fails.
func Serve(ctx context.Context, l net.Listener, kv KV, logger *slog.Logger) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go handleConn(conn, kv, logger)
	}
}

func handleConn(conn net.Conn, kv KV, logger *slog.Logger) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		resp := handle(kv, req)
		if !resp.OK && logger != nil {
			logger.Debug("cache request failed", "op", req.Op, "key", req.Key, "error", resp.Error)
		}
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func handle(kv KV, req Request) Response {
	switch req.Op {
	case "get":
		v, err := kv.Get(req.Key)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Value: v}
	case "put":
		ttl := time.Duration(req.TTLSeconds) * time.Second
		if err := kv.Put(req.Key, req.Value, ttl); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case "delete":
		if err := kv.Delete(req.Key); err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true}
	case "keys":
		keys, err := kv.Keys(req.Key)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Keys: keys}
	case "delete_prefix":
		n, err := kv.DeletePrefix(req.Key)
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{OK: true, Count: n}
	default:
		return Response{Error: "unknown op"}
	}
}
