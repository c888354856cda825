package model

import "time"

type RegisterRequest struct {
	Fullname string `json:"fullname" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest identifies the account by exactly one of Email or Username.
type LoginRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type AuthResponse struct {
	User         *AuthUser `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
}

type UserResponse struct {
	User *AuthUser `json:"user"`
}

// AuthUser is the identity attached to an authenticated request.
// It never carries the password hash or the refresh token.
type AuthUser struct {
	ID        int64     `json:"id"`
	Fullname  string    `json:"fullname"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID               int64
	Fullname         string
	Username         string
	Email            string
	PasswordHash     string  `json:"-"`
	RefreshTokenHash *string `json:"-"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) Identity() *AuthUser {
	return &AuthUser{
		ID:        u.ID,
		Fullname:  u.Fullname,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
