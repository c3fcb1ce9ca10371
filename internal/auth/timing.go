package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for login timing equalization
type TimingConfig struct {
	BaseDelayMs   int // minimum duration of a failed login
	RandomDelayMs int // random jitter added on top
}

// TimingDelay pads failed logins so unknown usernames and wrong passwords take similar time.
type TimingDelay struct {
	config TimingConfig
	sleep  func(time.Duration)
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config, sleep: time.Sleep}
}

// cryptoRandIntn returns a random number in [0, max) from crypto/rand.
func cryptoRandIntn(max int) int {
	if max <= 0 {
		return 0
	}

	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(b) % uint64(max))
}

// Target returns the padded duration for one failed attempt.
func (td *TimingDelay) Target() time.Duration {
	base := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	jitter := time.Duration(cryptoRandIntn(td.config.RandomDelayMs)) * time.Millisecond
	return base + jitter
}

// WaitFrom sleeps until at least Target() has elapsed since start.
func (td *TimingDelay) WaitFrom(start time.Time) {
	if td == nil {
		return
	}

	if remaining := td.Target() - time.Since(start); remaining > 0 {
		td.sleep(remaining)
	}
}
