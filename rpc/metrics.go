package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Quible-Network/quible-node/logging"
)

// countingResponseWriter buffers the response body so recordMetrics can
// tell a JSON-RPC error reply (HTTP 200 with a populated "error" field)
// from a successful one after the handler has already written it.
type countingResponseWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *countingResponseWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// recordMetrics wraps next and increments logging.RPCRequestsTotal once per
// call, labeled by method and outcome. The method name is read from the
// envelope the same way methodCasing reads it; outcome is derived from
// whether the JSON-RPC reply carries an "error" member.
func recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readAndRestoreBody(r)
		method := "unknown"
		if err == nil {
			var envelope struct {
				Method string `json:"method"`
			}
			if json.Unmarshal(body, &envelope) == nil && envelope.Method != "" {
				method = envelope.Method
			}
		}

		rec := &countingResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		outcome := "ok"
		var reply struct {
			Error json.RawMessage `json:"error"`
		}
		if json.Unmarshal(rec.buf.Bytes(), &reply) == nil && len(reply.Error) > 0 && string(reply.Error) != "null" {
			outcome = "error"
		}
		logging.RPCRequestsTotal.WithLabelValues(method, outcome).Inc()
	})
}
