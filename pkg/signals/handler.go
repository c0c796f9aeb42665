package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	mu       sync.Mutex
	handlers []func()
	listen   sync.Once
)

// OnTermination registers fn to run when the process receives SIGINT or
// SIGTERM. Handlers run in registration order, then the process exits.
// The signal listener starts with the first registration.
func OnTermination(fn func()) {
	mu.Lock()
	handlers = append(handlers, fn)
	mu.Unlock()

	listen.Do(func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-c
			runHandlers()
			os.Exit(0)
		}()
	})
}

func runHandlers() {
	mu.Lock()
	defer mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
