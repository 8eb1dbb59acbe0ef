// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// ResetTokenTTL is the window in which a password reset token can be used.
const ResetTokenTTL = 10 * time.Minute

// ResetTokenLength is the byte length of the random reset token (256 bits).
const ResetTokenLength = 32

// ResetToken is a freshly minted one-time password reset credential.
//
// The Plaintext form exists only in memory long enough to be delivered over
// a side channel (email); only the Hash is ever persisted. Verification
// recomputes the digest of the presented value and compares.
type ResetToken struct {
	Plaintext string
	Hash      string
	ExpiresAt time.Time
}

// NewResetToken mints a one-time password reset token.
func NewResetToken() (*ResetToken, error) {
	plaintext, err := GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return nil, err
	}

	return &ResetToken{
		Plaintext: plaintext,
		Hash:      HashToken(plaintext),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}, nil
}
