package dto

import (
	"posledger/internal/domain/auth"
)

// LoginRequest signs an operator in on a device.
type LoginRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{
		DeviceID: r.DeviceID,
		Email:    r.Email,
		Password: r.Password,
	}
}

// RegisterOperatorRequest adds an operator to the caller's device.
type RegisterOperatorRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

// ToCredentials converts to domain credentials for deviceID.
func (r *RegisterOperatorRequest) ToCredentials(deviceID string) auth.Credentials {
	return auth.Credentials{
		DeviceID: deviceID,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginResponse includes the token and operator.
type LoginResponse struct {
	Token    *auth.Token    `json:"token"`
	Operator *auth.Operator `json:"operator"`
}
