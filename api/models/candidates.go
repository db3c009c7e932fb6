package models

// Alphabet used when generating candidate identifiers.
var Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type CandidateCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Party       string `json:"party" binding:"required"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl"`
}

type CandidateUpdateRequest struct {
	Name        string `json:"name" binding:"required"`
	Party       string `json:"party" binding:"required"`
	Description string `json:"description"`
	PhotoURL    string `json:"photoUrl"`
}

type VoteRequest struct {
	CandidateID string `json:"candidateId" binding:"required"`
}
