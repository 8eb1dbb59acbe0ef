// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/trekora/internal/platform/sec"
)

/*
TestPasswordHashing checks the bcrypt round trip and both rejection cases:
a wrong password and a corrupt stored hash.
*/
func TestPasswordHashing(t *testing.T) {
	hash, err := sec.HashPassword("pass1234")
	require.NoError(t, err)
	assert.NotEqual(t, "pass1234", hash)

	assert.True(t, sec.CheckPasswordHash("pass1234", hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
	assert.False(t, sec.CheckPasswordHash("pass1234", "not-a-bcrypt-hash"))
}

/*
TestNewResetToken checks entropy length, the plaintext-to-digest linkage,
the expiry window, and uniqueness across mints.
*/
func TestNewResetToken(t *testing.T) {
	token, err := sec.NewResetToken()
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	assert.Len(t, token.Plaintext, sec.ResetTokenLength*2)
	assert.Equal(t, sec.HashToken(token.Plaintext), token.Hash)
	assert.NotEqual(t, token.Plaintext, token.Hash)

	remaining := time.Until(token.ExpiresAt)
	assert.Greater(t, remaining, 9*time.Minute)
	assert.LessOrEqual(t, remaining, sec.ResetTokenTTL)

	second, err := sec.NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token.Plaintext, second.Plaintext)
}
