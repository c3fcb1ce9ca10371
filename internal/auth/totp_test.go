package auth

import (
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTOTPManager(t *testing.T) *TOTPManager {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	tm, err := NewTOTPManager(key, "Grievance")
	require.NoError(t, err)
	return tm
}

func TestNewTOTPManager_InvalidKeyLength(t *testing.T) {
	for _, length := range []int{0, 16, 24, 31, 33, 64} {
		tm, err := NewTOTPManager(make([]byte, length), "Grievance")
		assert.Error(t, err)
		assert.Nil(t, tm)
		assert.Contains(t, err.Error(), "must be exactly 32 bytes")
	}
}

func TestTOTPManager_Enroll(t *testing.T) {
	tm := newTestTOTPManager(t)

	enrollment, err := tm.Enroll("jdoe@uni.edu")
	require.NoError(t, err)

	assert.Len(t, enrollment.Nonce, 12)
	assert.NotEmpty(t, enrollment.EncryptedSecret)
	assert.NotEmpty(t, enrollment.Secret)
	assert.True(t, strings.HasPrefix(enrollment.QRCodeDataURL, "data:image/png;base64,"))

	plain, err := tm.DecryptSecret(enrollment.EncryptedSecret, enrollment.Nonce)
	require.NoError(t, err)
	assert.Equal(t, enrollment.Secret, string(plain))
}

func TestTOTPManager_DecryptSecret_Tampered(t *testing.T) {
	tm := newTestTOTPManager(t)

	ciphertext, nonce, err := tm.EncryptSecret([]byte("JBSWY3DPEHPK3PXP"))
	require.NoError(t, err)

	ciphertext[0] ^= 0xFF
	_, err = tm.DecryptSecret(ciphertext, nonce)
	assert.Error(t, err)

	_, err = tm.DecryptSecret(ciphertext, nonce[:4])
	assert.Error(t, err)
}

func TestTOTPManager_Verify(t *testing.T) {
	tm := newTestTOTPManager(t)
	enrollment, err := tm.Enroll("jdoe@uni.edu")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	code, err := totp.GenerateCode(enrollment.Secret, now)
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	earlier := now.Add(-10 * time.Minute)
	recent := now.Add(-20 * time.Second)

	tests := []struct {
		name       string
		code       string
		at         time.Time
		lastUsedAt *time.Time
		valid      bool
		replay     bool
	}{
		{name: "current code", code: code, at: now, valid: true},
		{name: "one step of drift", code: code, at: now.Add(30 * time.Second), valid: true},
		{name: "outside drift window", code: code, at: now.Add(5 * time.Minute), valid: false},
		{name: "wrong code", code: wrong, at: now, valid: false},
		{name: "malformed code", code: "abc", at: now, valid: false},
		{name: "used long ago", code: code, at: now, lastUsedAt: &earlier, valid: true},
		{name: "replayed", code: code, at: now, lastUsedAt: &recent, replay: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := tm.Verify(enrollment.EncryptedSecret, enrollment.Nonce, tt.code, tt.lastUsedAt, tt.at)
			if tt.replay {
				assert.ErrorIs(t, err, ErrTOTPReplay)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, ok)
		})
	}
}
