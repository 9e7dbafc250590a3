// Package hibachitest provides a mock execution harness for testing code
// built on the hibachi SDK without real network I/O.
//
// Tests stage expected outputs (success values or errors) into FIFO
// queues, substitute the mock executors for the real transports via the
// SDK's executor interfaces, and afterwards assert on the recorded call
// logs. Consuming from an empty queue fails loudly so missing test setup
// is diagnosed immediately instead of surfacing as a nil response.
package hibachitest

import (
	"fmt"
	"sync"
)

// Output is one staged result: either a success value or an error. Exactly
// one of the two fields is meaningful, determined by Err being nil.
type Output struct {
	Value any
	Err   error
}

// Value stages a success output.
func Value(v any) Output { return Output{Value: v} }

// Err stages an error output. The error is handed back on consumption
// unchanged, so tests can assert on the exact value staged.
func Err(err error) Output { return Output{Err: err} }

// UnstagedCallError reports a mock invocation with no output staged for
// it. It names the attempted operation so the missing Stage call is easy
// to locate.
type UnstagedCallError struct {
	Op string
}

func (e *UnstagedCallError) Error() string {
	return fmt.Sprintf("no staged output for %s call", e.Op)
}

// UnstagedRecvError reports a Recv invocation with no inbound message
// staged.
type UnstagedRecvError struct {
	Op string
}

func (e *UnstagedRecvError) Error() string {
	return fmt.Sprintf("no staged message for %s call", e.Op)
}

// UnconsumedOutputsError reports staged outputs left over at the end of a
// test, a sign the scenario made fewer calls than the test staged for.
type UnconsumedOutputsError struct {
	Remaining int
}

func (e *UnconsumedOutputsError) Error() string {
	return fmt.Sprintf("%d staged outputs were never consumed", e.Remaining)
}

// Call is one recorded mock invocation: the operation name and the
// arguments exactly as passed.
type Call struct {
	Op   string
	Args []any
}

// outputQueue is an ordered store of staged outputs. Staging and
// consumption are serialized by a mutex so interleaved consumers never
// observe the same head element.
type outputQueue struct {
	mu      sync.Mutex
	outputs []Output
}

func (q *outputQueue) stage(outputs ...Output) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outputs = append(q.outputs, outputs...)
}

// consume pops the head. The success value comes back as staged, an error
// output comes back as the error itself, and an empty queue yields an
// UnstagedCallError naming op.
func (q *outputQueue) consume(op string) (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.outputs) == 0 {
		return nil, &UnstagedCallError{Op: op}
	}
	head := q.outputs[0]
	q.outputs = q.outputs[1:]
	if head.Err != nil {
		return nil, head.Err
	}
	return head.Value, nil
}

// tryConsume pops the head when anything is staged. The boolean reports
// emptiness instead of an error, for consumers where an empty queue means
// default behavior rather than missing setup.
func (q *outputQueue) tryConsume() (Output, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.outputs) == 0 {
		return Output{}, false
	}
	head := q.outputs[0]
	q.outputs = q.outputs[1:]
	return head, true
}

func (q *outputQueue) remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.outputs)
}

// callLog is an append-only record of invocations.
type callLog struct {
	mu    sync.Mutex
	calls []Call
}

func (l *callLog) record(op string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Op: op, Args: args})
}

// snapshot returns a copy so callers cannot disturb the recorded order.
func (l *callLog) snapshot() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}
