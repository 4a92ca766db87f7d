package auth

import "time"

// Config drives token issuance.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// Token is a signed owner token.
type Token struct {
	Token     string    `json:"token"`
	OwnerID   string    `json:"ownerId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims are extracted from the JWT token.
type Claims struct {
	OwnerID   string
	TokenID   string
	ExpiresAt time.Time
}
