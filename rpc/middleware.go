package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// readAndRestoreBody reads r.Body to completion and replaces it with a
// fresh reader over the same bytes, so later middleware can read it again.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	return body, nil
}

// methodCasing rewrites the wire-level lowerCamelCase method name
// ("quible.sendTransaction") to the exported Go method name gorilla/rpc's
// reflection-based dispatch requires ("quible.SendTransaction") before
// handing the request to next. This keeps gorilla/rpc's real dispatch
// machinery in place instead of hand-rolling a router, at the cost of one
// body rewrite per request.
func methodCasing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readAndRestoreBody(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		var envelope struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && envelope.Method != "" {
			if ns, method, ok := strings.Cut(envelope.Method, "."); ok && method != "" {
				envelope.Method = ns + "." + strings.ToUpper(method[:1]) + method[1:]
				rewritten, err := json.Marshal(envelope)
				if err == nil {
					body = rewritten
				}
			}
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}
