package domain

import "time"

// Session binds an opaque cookie value to an authenticated account.
// Email and role are denormalized so request authentication never has to
// touch the credential store. An expired session is simply absent.
type Session struct {
	ID        string    `json:"-"`
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
