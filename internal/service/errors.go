package service

import "errors"

var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrEmptyName    = errors.New("room name is empty")
)
