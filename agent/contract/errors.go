package contract

import "errors"

var (
	ErrSetupRequired = errors.New("business setup required")
	ErrEmptyMessage  = errors.New("message is required")
)
