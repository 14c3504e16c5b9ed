// Package pipeline implements the streaming transformer chain (C10):
// a linear sequence of stages, each with one inbound byte stream, one
// outbound byte stream, and a control channel for typed messages,
// driven cooperatively with bounded back-pressure (§4.8, §5).
package pipeline

import (
	"context"

	"github.com/ArunaStorage/aruna-sub004/pkg/merrors"
)

// ChannelDepth is the bounded channel depth used between stages,
// matching §5's "bounded channels (default depth 10)".
const ChannelDepth = 10

// MessageKind names a control-channel message shape.
type MessageKind int

const (
	MsgFileContext MessageKind = iota
	MsgFinished
	MsgCompleted
)

// Message is a typed control message passed alongside the byte stream.
type Message struct {
	Kind     MessageKind
	FileName string      // set for MsgFileContext
	Digest   []byte      // set for MsgCompleted (hash transformers)
	Size     int64       // MsgCompleted: byte count (ReplicationSink: chunk index); MsgFinished: chunk index to retransmit
	Err      error
}

// Transformer is one pipeline stage.
type Transformer interface {
	// Process reads from in, writes transformed bytes to out, and
	// reacts to ctrl, until in and ctrl are both closed and drained,
	// then closes out. It must be cancellation-safe: ctx.Done() always
	// wins a pending channel op.
	Process(ctx context.Context, in <-chan []byte, out chan<- []byte, ctrl <-chan Message, ctrlOut chan<- Message) error
}

// Pipeline chains Transformers, wiring stage i's out to stage i+1's in.
type Pipeline struct {
	stages []Transformer
}

// New builds a Pipeline from stages in order, terminated by a sink
// transformer (the final stage, whose out channel is simply drained).
func New(stages ...Transformer) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run drives every stage concurrently, feeding src into the first
// stage and returning the final stage's control-channel messages
// (typically a single MsgCompleted). It blocks until every stage
// finishes or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, src <-chan []byte, srcCtrl <-chan Message) ([]Message, error) {
	if len(p.stages) == 0 {
		return nil, merrors.New(merrors.KindValidation, "pipeline has no stages")
	}

	in := src
	ctrlIn := srcCtrl
	errs := make(chan error, len(p.stages))
	var finalOut chan Message

	for i, stage := range p.stages {
		out := make(chan []byte, ChannelDepth)
		ctrlOut := make(chan Message, ChannelDepth)
		stage := stage
		stageIn, stageCtrl := in, ctrlIn

		go func() {
			errs <- stage.Process(ctx, stageIn, out, stageCtrl, ctrlOut)
		}()

		in = out
		ctrlIn = ctrlOut
		if i == len(p.stages)-1 {
			finalOut = ctrlOut
		}
	}

	// Drain the last stage's data output; a sink stage is expected to
	// have already consumed everything meaningful into its side
	// effect (backend write, chunk emission, etc.).
	go func() {
		for range in {
		}
	}()

	var collected []Message
	done := make(chan struct{})
	go func() {
		for msg := range finalOut {
			collected = append(collected, msg)
		}
		close(done)
	}()

	var firstErr error
	for i := 0; i < len(p.stages); i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	<-done

	if firstErr != nil {
		return collected, firstErr
	}
	select {
	case <-ctx.Done():
		return collected, ctx.Err()
	default:
		return collected, nil
	}
}
