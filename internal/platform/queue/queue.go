// Copyright (c) 2026 Trekora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package queue publishes domain events to the message broker.
//
// # Architecture
//
// The API server is a pure producer: anything that happens after a request
// commits (welcome emails, reset-token delivery, booking confirmations)
// runs in downstream workers fed from a topic exchange. Publishing is
// best-effort from the handler's point of view; the one exception, the
// password-reset flow, compensates explicitly when the event cannot be
// handed to the broker.
package queue

import (
	"context"
	"time"
)

// Routing keys on the events exchange.
const (
	KeyUserRegistered         = "user.registered"
	KeyPasswordResetRequested = "user.password_reset_requested"
	KeyBookingCompleted       = "booking.completed"
)

// Publisher hands a domain event to the broker under a routing key.
//
// Implementations must not block past the context deadline; handlers
// publish on the request path.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	Close() error
}

// NoopPublisher discards every event. Used in development and tests when
// no broker is configured.
type NoopPublisher struct{}

func NewNoop() Publisher { return NoopPublisher{} }

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// # Event Payloads

// UserRegistered is published after a successful signup. The notify worker
// sends the welcome email.
type UserRegistered struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// PasswordResetRequested carries the plaintext reset token to the notify
// worker. The token exists nowhere else in plaintext: storage keeps only
// its digest, so losing this event means the token is unusable.
type PasswordResetRequested struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BookingCompleted is published once a booking is paid.
type BookingCompleted struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	TourID    string    `json:"tour_id"`
	Price     float64   `json:"price"`
	PaidAt    time.Time `json:"paid_at"`
}
