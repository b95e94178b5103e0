package models

// User represents a user in the database.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	DisplayName  string `db:"display_name"`
	Avatar       string `db:"avatar"`
	Email        string `db:"email"`
	Gender       string `db:"gender"`
	Birthday     string `db:"birthday"`
}

// RegisterRequest defines the structure for a user registration request.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=20"`
	Password    string `json:"password" binding:"required,min=6,max=50"`
	DisplayName string `json:"displayName" binding:"max=50"`
	Email       string `json:"email" binding:"omitempty,email"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other"`
	Birthday    string `json:"birthday"`
}

// LoginRequest defines the structure for a user login request.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for a successful login response.
type LoginResponse struct {
	Token string `json:"token"`
}

// Profile is the user as exposed over the API: no password hash, no row id.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Email       string `json:"email"`
	Gender      string `json:"gender"`
	Birthday    string `json:"birthday"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"max=50"`
	Avatar      string `json:"avatar"`
	Email       string `json:"email" binding:"omitempty,email"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female other"`
	Birthday    string `json:"birthday"`
}
