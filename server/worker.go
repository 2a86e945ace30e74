package server

import (
	"errors"
	"fmt"
)

// errWorkerStopped is returned by Do after Stop.
var errWorkerStopped = errors.New("server: worker stopped")

// workRequest is a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*Workspace) any
	done chan workResult
}

// workResult holds the return value of a workspace operation.
type workResult struct {
	value any
	err   error
}

// Worker serializes all workspace access through a single goroutine, so
// edits and the queries that follow them are seen in order.
type Worker struct {
	ws       *Workspace
	requests chan workRequest
	quit     chan struct{}
}

// NewWorker creates a Worker owning ws and starts its goroutine.
func NewWorker(ws *Workspace) *Worker {
	w := &Worker{
		ws:       ws,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn on the workspace, recovering from panics.
func (w *Worker) execute(fn func(*Workspace) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("server: %v", r)
			}
		}()
		result.value = fn(w.ws)
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes. A panic in fn is returned as an error.
func (w *Worker) Do(fn func(*Workspace) any) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, errWorkerStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, errWorkerStopped
	}
}

// Stop shuts down the worker goroutine. It is safe to call more than once.
func (w *Worker) Stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
}
