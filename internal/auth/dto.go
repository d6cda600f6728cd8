package auth

// LoginRequest carries the admin console credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// AdminUser is the identity echoed back after login.
type AdminUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// LoginResponse is the token and identity produced by a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int64     `json:"expiresIn"`
	User      AdminUser `json:"user"`
}
