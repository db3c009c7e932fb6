package models

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	RollNumber string `json:"rollNumber" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAdminRequest struct {
	Name        string `json:"name" binding:"required"`
	RollNumber  string `json:"rollNumber" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	AdminSecret string `json:"adminSecret"`
}

type AdminUserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

type AdminLoginResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    AdminUserInfo `json:"user"`
}
