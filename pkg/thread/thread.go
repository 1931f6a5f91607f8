// Package thread is used for locking goroutines to the main OS thread.
// SDL video calls are only valid from the thread that initialized SDL,
// so the display sink funnels everything through here.
// See: https://github.com/golang/go/wiki/LockOSThread
package thread

import (
	"runtime"
	"sync"
)

type fun struct {
	fn   func()
	done chan struct{}
}

var dPool = sync.Pool{New: func() any { return make(chan struct{}) }}
var fq = make(chan fun, runtime.GOMAXPROCS(0))

func init() {
	runtime.LockOSThread()
}

// Main is a wrapper for the main function.
// Main returns when the run (argument) function finishes.
func Main(run func()) {
	done := make(chan struct{})
	go func() {
		run()
		done <- struct{}{}
	}()
	for {
		select {
		case f := <-fq:
			f.fn()
			f.done <- struct{}{}
		case <-done:
			return
		}
	}
}

// Call queues function f on the main thread and blocks until f finishes.
func Call(f func()) {
	done := dPool.Get().(chan struct{})
	defer dPool.Put(done)
	fq <- fun{fn: f, done: done}
	<-done
}
