// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Authentication Constraints

const (
	// PasswordMinLength is the minimum accepted password length.
	PasswordMinLength = 8

	// NameMinLength is the minimum accepted display name length.
	NameMinLength = 2
)
