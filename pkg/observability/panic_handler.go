package observability

import (
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with its stack.
//
//	defer observability.RecoverPanic(log, "history write")
//
// The panic is not re-raised.
func RecoverPanic(log *logrus.Entry, context string) {
	if r := recover(); r != nil {
		log.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}

// MustRecover converts a recovered panic value to an error. It returns nil
// when r is nil.
//
//	defer func() {
//	    if perr := observability.MustRecover(recover()); perr != nil {
//	        err = perr
//	    }
//	}()
func MustRecover(r any) error {
	if r != nil {
		if err, ok := r.(error); ok {
			return fmt.Errorf("panic: %w", err)
		}
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
