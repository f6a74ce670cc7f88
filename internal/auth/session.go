package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`

	// Claims of the bearer token the request carried, kept for logout
	Claims *JWTClaims `json:"-"`
}

// IsAdmin reports whether the session belongs to an admin
func (s *SessionData) IsAdmin() bool {
	return s != nil && s.Role == "admin"
}
