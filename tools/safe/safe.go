package safe

import (
	"github.com/ishaan-vashist/chatcraft-ai/logger"
)

// Go starts a goroutine that recovers from panics so a single bad handler
// cannot take down the gateway.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("panic recovered: %v", r)
			}
		}()
		f()
	}()
}
