package sesh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFingerprint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase with separators",
			input:    "aa:bb:cc",
			expected: "AABBCC",
		},
		{
			name:     "mixed case with separators",
			input:    "DE:ad:be:EF",
			expected: "DEADBEEF",
		},
		{
			name:     "already canonical",
			input:    "DEADBEEF",
			expected: "DEADBEEF",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "full md5 width",
			input:    "98:2d:6a:1f:02:a8:be:9a:8b:ab:e1:cf:b2:9d:fc:1a",
			expected: "982D6A1F02A8BE9A8BABE1CFB29DFC1A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, NormalizeFingerprint(tt.input))
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c := Config{Host: "example.com", User: "root"}.Resolve()

		assert.Equal(t, DefaultPort, c.Port)
		assert.Equal(t, DefaultTimeout, c.Timeout)
	})

	t.Run("overrides win", func(t *testing.T) {
		t.Parallel()

		c := Config{Host: "example.com", Port: 2222, Timeout: time.Second}.Resolve()

		assert.Equal(t, 2222, c.Port)
		assert.Equal(t, time.Second, c.Timeout)
	})

	t.Run("fingerprint normalized", func(t *testing.T) {
		t.Parallel()

		c := Config{Host: "example.com", HostFingerprint: "de:ad:be:ef"}.Resolve()

		assert.Equal(t, "DEADBEEF", c.HostFingerprint)
	})
}

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	c := Config{Host: "example.com"}.Resolve()
	assert.Equal(t, "example.com:22", c.Addr())

	c.Port = 2222
	assert.Equal(t, "example.com:2222", c.Addr())
}

func TestParseAuthMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected AuthMethod
		wantErr  bool
	}{
		{input: "pass", expected: AuthPassword},
		{input: "PASS", expected: AuthPassword},
		{input: "password", expected: AuthPassword},
		{input: "key", expected: AuthPublicKey},
		{input: "pubkey", expected: AuthPublicKey},
		{input: "publickey", expected: AuthPublicKey},
		{input: "public-key", expected: AuthPublicKey},
		{input: "kerberos", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			m, err := ParseAuthMethod(tt.input)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestAuthMethod_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "password", AuthPassword.String())
	assert.Equal(t, "publickey", AuthPublicKey.String())
	assert.Equal(t, "unknown", AuthMethod(42).String())
}
