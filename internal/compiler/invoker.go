package compiler

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvokerClosed is returned by Invoke after Close
var ErrInvokerClosed = errors.New("invoker is closed")

type invocation struct {
	toolchain Toolchain
	task      Task
	reply     chan<- invocationResult
}

type invocationResult struct {
	ok  bool
	err error
}

// Invoker runs compiler tasks one at a time on a dedicated goroutine.
// Tool-chains are not safe for concurrent use, so every task in the
// process goes through the same Invoker.
type Invoker struct {
	jobs      chan invocation
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var (
	defaultOnce    sync.Once
	defaultInvoker *Invoker
)

// Default returns the process-wide invoker
func Default() *Invoker {
	defaultOnce.Do(func() {
		defaultInvoker = NewInvoker()
	})

	return defaultInvoker
}

// NewInvoker starts a new invoker
func NewInvoker() *Invoker {
	i := &Invoker{
		jobs: make(chan invocation),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	go i.run()

	return i
}

// Invoke runs task on tc and blocks until it completes
func (i *Invoker) Invoke(tc Toolchain, task Task) (bool, error) {
	reply := make(chan invocationResult, 1)

	select {
	case i.jobs <- invocation{toolchain: tc, task: task, reply: reply}:
	case <-i.quit:
		return false, ErrInvokerClosed
	}

	r := <-reply
	return r.ok, r.err
}

// Close stops the worker once the running task, if any, has finished
func (i *Invoker) Close() {
	i.closeOnce.Do(func() {
		close(i.quit)
	})

	<-i.done
}

func (i *Invoker) run() {
	defer close(i.done)

	for {
		select {
		case <-i.quit:
			return
		case job := <-i.jobs:
			job.reply <- call(job.toolchain, job.task)
		}
	}
}

func call(tc Toolchain, task Task) (res invocationResult) {
	defer func() {
		if r := recover(); r != nil {
			res = invocationResult{err: fmt.Errorf("compiler tool-chain panicked: %v", r)}
		}
	}()

	if tc == nil {
		return invocationResult{err: errors.New("no compiler tool-chain configured")}
	}

	ok, err := tc.Compile(task)
	return invocationResult{ok: ok, err: err}
}
