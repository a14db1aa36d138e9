package models

// User is an operator allowed to sign in to the dashboard.
type User struct {
	Username     string
	Name         string
	PasswordHash string
}

// LoginRequest is the body accepted by the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserInfo is the public view of an operator.
type UserInfo struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// LoginResponse is returned on successful sign in.
type LoginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}
