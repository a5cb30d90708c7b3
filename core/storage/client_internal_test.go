package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		useSSL   bool
		endpoint string
		secure   bool
	}{
		{"localhost:9000", false, "localhost:9000", false},
		{"http://localhost:9000", true, "localhost:9000", true},
		{"https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			endpoint, secure := splitEndpoint(tt.raw, tt.useSSL)
			assert.Equal(t, tt.endpoint, endpoint)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestNewTransport(t *testing.T) {
	tr := newTransport(7 * time.Second)
	assert.Equal(t, 7*time.Second, tr.TLSHandshakeTimeout)
	assert.Equal(t, 7*time.Second, tr.ResponseHeaderTimeout)
}
