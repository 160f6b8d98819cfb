package service

import "errors"

var (
	ErrIncompleteAssessment = errors.New("incomplete assessment")
	ErrUnknownQuestion      = errors.New("unknown question")
	ErrAssessmentNotFound   = errors.New("assessment not found")
	ErrPersistenceDisabled  = errors.New("persistence disabled")
	ErrGuidanceNotFound     = errors.New("guidance not found")
	ErrGuidanceUnavailable  = errors.New("guidance unavailable")
	ErrInvalidLifestyle     = errors.New("invalid lifestyle answers")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrRateLimited          = errors.New("rate limited")
	ErrInvalidQuery         = errors.New("invalid query")
)
