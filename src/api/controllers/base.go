package controllers

import (
	"context"
	"errors"

	"tracker/src/notifications"
	"tracker/src/utils"
)

// EventDispatcher is the post-commit notification boundary. The production
// implementation is notifications.Dispatcher; tests plug in their own.
type EventDispatcher interface {
	Dispatch(e notifications.Event)
}

// classifyError is the single point where storage failures become caller-visible
// errors. HTTPErrors (validation, business rejection) and context timeouts pass
// through; anything else is a storage fault reported as a server error.
func classifyError(err error) error {
	var httpErr *utils.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return utils.InternalServerError(err.Error())
}
