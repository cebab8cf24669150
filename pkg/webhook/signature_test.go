package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyHMAC(t *testing.T) {
	payload := []byte(`{"patient_id":7,"transcript":"SpO2 88"}`)
	sig := Sign("s3cret", payload)

	assert.Len(t, sig, 64)
	assert.True(t, VerifyHMAC("s3cret", payload, sig))
	assert.True(t, VerifyHMAC("s3cret", payload, "sha256="+sig))
	assert.True(t, VerifyHMAC("s3cret", payload, " "+sig+" "))

	assert.False(t, VerifyHMAC("other", payload, sig))
	assert.False(t, VerifyHMAC("s3cret", append(payload, ' '), sig))
	assert.False(t, VerifyHMAC("s3cret", payload, ""))
	assert.False(t, VerifyHMAC("", payload, Sign("", payload)))
}
