package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required,min=4"`
	Roles    []string `json:"roles"    validate:"dive,oneof=user admin"`
}

type ownerRequest struct {
	Name    string `json:"name"    validate:"required"`
	Address string `json:"address" validate:"required"`
	Phone   string `json:"phone"   validate:"required"`
}

type boatRequest struct {
	Name     string `json:"name"      validate:"required"`
	Type     string `json:"type"      validate:"required"`
	Captain  string `json:"captain"   validate:"required"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

type harbourRequest struct {
	Name     string `json:"name"     validate:"required"`
	Address  string `json:"address"  validate:"required"`
	Capacity int    `json:"capacity" validate:"gt=0"`
}

// --- Response types ---
// Kept apart from the domain types so the JSON contract does not follow
// internal changes.

type loginResponse struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
}

type meResponse struct {
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userResponse struct {
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

type ownerResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Phone   string   `json:"phone"`
	BoatIDs []string `json:"boat_ids"`
}

type boatResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Captain   string   `json:"captain"`
	ImageURL  string   `json:"image_url"`
	HarbourID *string  `json:"harbour_id"`
	OwnerIDs  []string `json:"owner_ids"`
}

type harbourResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Capacity int      `json:"capacity"`
	Free     int      `json:"free"`
	BoatIDs  []string `json:"boat_ids"`
}
