package scheduler

import "errors"

// ErrAlreadyStarted Start 只能调用一次
var ErrAlreadyStarted = errors.New("scheduler already started")
