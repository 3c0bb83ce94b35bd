package httpx

import (
	"bytes"
	"net/http"

	"github.com/target/newsletter-api/internal/domain/idempotency"
)

// captureWriter buffers a response so it can be saved for idempotent replay before
// anything reaches the client.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

// response converts the buffered output into a storable response.
func (c *captureWriter) response() *idempotency.Response {
	return &idempotency.Response{
		StatusCode: c.status,
		Headers:    idempotency.PairsFromHeader(c.header),
		Body:       bytes.Clone(c.buf.Bytes()),
	}
}
