package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCompressionRoundTrip(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	small := &AuditRow{Changes: []byte(`{"status":"confirmed"}`), CompressionAlgo: CompressionNone}
	svc.compress(small)
	assert.Equal(t, CompressionNone, small.CompressionAlgo)

	payload := append([]byte(`{"notes":"`), append(bytes.Repeat([]byte("a"), DefaultCompressThreshold+1), []byte(`"}`)...)...)
	large := &AuditRow{Changes: payload, CompressionAlgo: CompressionNone}
	svc.compress(large)
	assert.Equal(t, CompressionZstd, large.CompressionAlgo)
	assert.Nil(t, large.Changes)
	assert.Less(t, len(large.ChangesCompressed), len(payload))

	require.NoError(t, svc.decompress(large))
	assert.Equal(t, payload, []byte(large.Changes))
}
