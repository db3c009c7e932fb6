package storage

import "errors"

var ErrVoterNotFound = errors.New("voter not found in storage")
var ErrCandidateNotFound = errors.New("candidate not found in storage")
var ErrAlreadyVoted = errors.New("voter has already cast a vote")
var ErrOTPMismatch = errors.New("stored code does not match")
var ErrItemAlreadyExists = errors.New("item already exists in storage")
