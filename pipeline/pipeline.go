// Package pipeline implements the executor that chains operators and
// streams chunks through them (spec ch. 4.5). Grounded on the teacher's
// query/query.go Run()/Result.TimerStart - this repo's ExecutionStats is
// the same closure-based phase-timer instrumentation, generalised from
// one hardcoded query function to an arbitrary operator chain.
package pipeline

import (
	"io"
	"log"
	"time"

	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
	"github.com/kodekit/colexec/operator"
)

// Timer records one named phase's elapsed time, relative to the
// pipeline run's start - mirrors the teacher's query.Timer
// (Event/Context/StartUs/EndUs).
type Timer struct {
	Event   string
	Context string
	StartUs int64
	EndUs   int64
}

// ExecutionStats reports rows-in/rows-out/wall time for one Execute call
// (spec ch. 4.5 step 3), plus phase timers in the teacher's TimerStart
// style: "feed" and "finish" spans within a "total" span for the run.
// Timings are per phase, not per operator.
type ExecutionStats struct {
	RowsIn  int64
	RowsOut int64
	Wall    time.Duration
	Timers  []Timer
}

// Pipeline owns an ordered, non-empty list of operators (spec ch. 4.5).
type Pipeline struct {
	operators []operator.Operator
	logger    *log.Logger
}

// New builds a Pipeline from a non-empty operator chain. logger may be
// nil, in which case a discarding logger is used - pass
// log.New(io.Discard, "", 0) explicitly for the same effect, or a real
// *log.Logger to see one line per Execute call (operator count, rows
// in/out, wall time), matching the teacher's cmd/server/main.go habit of
// plain log.Printf over a structured logging library.
func New(operators []operator.Operator, logger *log.Logger) (*Pipeline, error) {
	if len(operators) == 0 {
		return nil, engine.Errorf(engine.ErrInvalidPipeline, "pipeline requires at least one operator")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{operators: operators, logger: logger}, nil
}

// OutputSchema is the last operator's output schema.
func (p *Pipeline) OutputSchema() *column.Schema {
	return p.operators[len(p.operators)-1].OutputSchema()
}

// Operators returns the pipeline's operator chain, in order.
func (p *Pipeline) Operators() []operator.Operator { return p.operators }

// timerSpan returns a stop function in the teacher's
// Result.TimerStart(event, context) shape: call it once, defer the
// returned closure, and it appends one Timer recording the elapsed
// microseconds since runStart.
func timerSpan(timers *[]Timer, runStart time.Time, event, context string) func() {
	startUs := time.Since(runStart).Microseconds()
	return func() {
		*timers = append(*timers, Timer{
			Event:   event,
			Context: context,
			StartUs: startUs,
			EndUs:   time.Since(runStart).Microseconds(),
		})
	}
}

// Execute runs every chunk in chunks through the operator chain, then
// drains each operator's Finish() left-to-right threading any emitted
// finalisation chunk through the downstream operators only (spec
// ch. 4.5 steps 1-2). Any Result error short-circuits execution; no
// partial materialization is guaranteed (spec ch. 7).
func (p *Pipeline) Execute(chunks []*column.Chunk) ([]*column.Chunk, ExecutionStats, error) {
	start := time.Now()
	var stats ExecutionStats
	stopTotal := timerSpan(&stats.Timers, start, "total", "")

	var out []*column.Chunk
	stopFeed := timerSpan(&stats.Timers, start, "feed", "total")
	upstreamDone := false
	for _, chunk := range chunks {
		if upstreamDone {
			break
		}
		stats.RowsIn += int64(chunk.Len())
		emitted, done, err := p.pushThrough(0, chunk)
		if err != nil {
			return nil, stats, err
		}
		out = append(out, emitted...)
		if done {
			upstreamDone = true
		}
	}
	stopFeed()

	stopFinish := timerSpan(&stats.Timers, start, "finish", "total")
	if err := p.finishAll(&out); err != nil {
		return nil, stats, err
	}
	stopFinish()

	for _, c := range out {
		stats.RowsOut += int64(c.Len())
	}
	stopTotal()
	stats.Wall = time.Since(start)
	p.logger.Printf("pipeline: %d operators, rows_in=%d rows_out=%d wall=%s",
		len(p.operators), stats.RowsIn, stats.RowsOut, stats.Wall)
	return out, stats, nil
}

// pushThrough drives chunk through operators[from:], collecting every
// chunk any stage along the way emits and reporting whether the chain
// signalled done (spec ch. 4.5 step 1: "if it returns done, remember
// that and stop feeding").
func (p *Pipeline) pushThrough(from int, chunk *column.Chunk) ([]*column.Chunk, bool, error) {
	current := []*column.Chunk{chunk}
	done := false
	for i := from; i < len(p.operators); i++ {
		op := p.operators[i]
		var next []*column.Chunk
		for _, c := range current {
			res, err := op.Process(c)
			if err != nil {
				return nil, false, engine.WithCode(engine.ErrExecutionFailed, err)
			}
			if res.Done {
				done = true
			}
			if res.Chunk != nil {
				next = append(next, res.Chunk)
			}
		}
		current = next
		if len(current) == 0 {
			return nil, done, nil
		}
	}
	return current, done, nil
}

// finishAll walks operators left-to-right calling Finish(); any emitted
// chunk is threaded through downstream operators only (spec ch. 4.5
// step 2), appending whatever eventually reaches the end of the chain
// to out.
func (p *Pipeline) finishAll(out *[]*column.Chunk) error {
	for i, op := range p.operators {
		res, err := op.Finish()
		if err != nil {
			return engine.WithCode(engine.ErrExecutionFailed, err)
		}
		if res.Chunk == nil {
			continue
		}
		emitted, _, err := p.pushThrough(i+1, res.Chunk)
		if err != nil {
			return err
		}
		*out = append(*out, emitted...)
	}
	return nil
}

// Reset clears every operator's local state, readying the pipeline for
// a fresh Execute call over new input.
func (p *Pipeline) Reset() {
	for _, op := range p.operators {
		op.Reset()
	}
}
