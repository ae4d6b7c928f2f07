package dto

import "time"

type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

type UserLoginResponse struct {
	UserID    uint      `json:"id"`
	UserName  string    `json:"name"`
	UserEmail string    `json:"email"`
	UserRole  int       `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"token"`
}
