package dto

import "time"

// FeaturesDTO reports which gated features the user's plan includes
type FeaturesDTO struct {
	PostToX   bool `json:"postToX"`
	Analytics bool `json:"analytics"`
}

// UserResponseDTO is returned in API responses for the current user
type UserResponseDTO struct {
	UserID             string      `json:"userId"`
	Email              string      `json:"email"`
	Tier               string      `json:"tier"`
	CreditsUsed        int         `json:"creditsUsed"`
	MaxCredits         int         `json:"maxCredits"`
	MaxDurationSeconds int         `json:"maxDurationSeconds"`
	Features           FeaturesDTO `json:"features"`
	ResetDate          time.Time   `json:"resetDate"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// QuotaResponseDTO is returned from the quota endpoint
type QuotaResponseDTO struct {
	CreditsUsed int       `json:"creditsUsed"`
	MaxCredits  int       `json:"maxCredits"`
	Remaining   int       `json:"remaining"`
	Tier        string    `json:"tier"`
	ResetDate   time.Time `json:"resetDate"`
}
