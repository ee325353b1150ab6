package request

// ExchangeTokenRequest represents a session token exchange request
type ExchangeTokenRequest struct {
	UserID     string `json:"user_id,omitempty"`
	Name       string `json:"name,omitempty" binding:"omitempty,max=100"`
	Email      string `json:"email,omitempty" binding:"omitempty,email"`
	Credential string `json:"credential,omitempty"`
}
