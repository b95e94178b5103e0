package apperror

import "errors"

var (
	ErrInvalidCapacity = errors.New("initial roster exceeds room capacity")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
)
