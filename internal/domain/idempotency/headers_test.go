package idempotency

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHeaderPairs(t *testing.T) {
	pairs := []HeaderPair{
		{Name: "Location", Value: []byte("/admin/newsletters")},
		{Name: "Bad Name", Value: []byte("x")},
		{Name: "X-Ctl", Value: []byte("line\r\nbreak")},
		{Name: "Content-Type", Value: []byte("text/plain; charset=utf-8")},
	}

	valid, dropped := SplitHeaderPairs(pairs)

	assert.Equal(t, []HeaderPair{pairs[0], pairs[3]}, valid)
	assert.Equal(t, []HeaderPair{pairs[1], pairs[2]}, dropped)
}

func TestPairsFromHeader(t *testing.T) {
	h := http.Header{}
	h.Add("Set-Cookie", "flash=one")
	h.Add("Location", "/admin/newsletters")
	h.Add("Set-Cookie", "other=two")

	got := PairsFromHeader(h)

	assert.Equal(t, []HeaderPair{
		{Name: "Location", Value: []byte("/admin/newsletters")},
		{Name: "Set-Cookie", Value: []byte("flash=one")},
		{Name: "Set-Cookie", Value: []byte("other=two")},
	}, got)
}
