package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("service: invalid credentials")
	ErrInvalidIdentity    = errors.New("service: invalid identity")
	ErrWrongUserType      = errors.New("service: wrong user type")
	ErrInvalidInput       = errors.New("service: invalid input")
	ErrEmailTaken         = errors.New("service: email already registered")
)
