package domain

import "errors"

var (
	ErrPathNotFound    = errors.New("folder path not found")
	ErrInvalidPath     = errors.New("malformed folder path")
	ErrInvalidParent   = errors.New("destination folder is inside the folder being moved")
	ErrBlobNotFound    = errors.New("blob not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)
