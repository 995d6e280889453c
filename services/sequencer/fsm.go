package sequencer

import (
	"context"

	"github.com/looplab/fsm"
)

const (
	StateIdle    = "IDLE"
	StateRunning = "RUNNING"
	StateStopped = "STOPPED"

	EventRun  = "RUN"
	EventStop = "STOP"
)

// NewFiniteStateMachine builds the sequencer lifecycle:
//
//	IDLE --RUN--> RUNNING --STOP--> STOPPED --RUN--> RUNNING
//
// onEnter is called with the new state after every transition.
func NewFiniteStateMachine(onEnter func(ctx context.Context, state string)) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventRun, Src: []string{StateIdle, StateStopped}, Dst: StateRunning},
			{Name: EventStop, Src: []string{StateRunning}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				if onEnter != nil {
					onEnter(ctx, e.Dst)
				}
			},
		},
	)
}
