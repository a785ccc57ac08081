package service

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrDuplicateEmail         = errors.New("duplicate_email")
	ErrWeakPassword           = errors.New("weak_password")
	ErrInvalidRefresh         = errors.New("invalid_refresh_token")
	ErrAccountGone            = errors.New("account_gone")
	ErrInvalidOrExpiredToken  = errors.New("invalid_or_expired_token")
	ErrNoProviderEmail        = errors.New("no_provider_email")
	ErrUnverifiedProviderMail = errors.New("unverified_provider_email")
)
