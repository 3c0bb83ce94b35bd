package idempotency

import (
	"bytes"
	"net/http"
)

// NextAction tells the caller of a claim what to do next.
type NextAction int

const (
	// StartProcessing means the claim is new and the caller must compute and save a response.
	StartProcessing NextAction = iota + 1
	// ReturnSavedResponse means a completed response exists and must be replayed verbatim.
	ReturnSavedResponse
)

func (a NextAction) String() string {
	switch a {
	case StartProcessing:
		return "start_processing"
	case ReturnSavedResponse:
		return "return_saved_response"
	default:
		return "unknown"
	}
}

// HeaderPair is a single response header line. Order within a Response is significant.
type HeaderPair struct {
	Name  string
	Value []byte
}

// Response is a fully buffered HTTP response that can be persisted and replayed.
type Response struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// Header builds an http.Header from the ordered pairs, preserving per-name value order.
func (r *Response) Header() http.Header {
	h := make(http.Header, len(r.Headers))
	for _, p := range r.Headers {
		h[p.Name] = append(h[p.Name], string(p.Value))
	}
	return h
}

// WriteTo writes the response to w. Headers are emitted in stored order.
func (r *Response) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for _, p := range r.Headers {
		dst[p.Name] = append(dst[p.Name], string(p.Value))
	}
	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// Equal reports whether two responses are byte-identical.
func (r *Response) Equal(other *Response) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.StatusCode != other.StatusCode || len(r.Headers) != len(other.Headers) {
		return false
	}
	for i := range r.Headers {
		if r.Headers[i].Name != other.Headers[i].Name || !bytes.Equal(r.Headers[i].Value, other.Headers[i].Value) {
			return false
		}
	}
	return bytes.Equal(r.Body, other.Body)
}
