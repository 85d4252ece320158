package paymentform

import (
	"context"

	"cardform/internal/models"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Submission events
const (
	EventSubmit  = "submit"
	EventSucceed = "succeed"
	EventFail    = "fail"
	EventReset   = "reset"
)

var submissionTransitions = fsm.Events{
	{Name: EventSubmit, Src: []string{string(models.SubmissionIdle)}, Dst: string(models.SubmissionSubmitting)},
	{Name: EventSucceed, Src: []string{string(models.SubmissionSubmitting)}, Dst: string(models.SubmissionSucceeded)},
	{Name: EventFail, Src: []string{string(models.SubmissionSubmitting)}, Dst: string(models.SubmissionFailed)},
	{
		Name: EventReset,
		Src:  []string{string(models.SubmissionSucceeded), string(models.SubmissionFailed)},
		Dst:  string(models.SubmissionIdle),
	},
}

// newSubmissionFSM builds the submission state machine starting in idle.
func newSubmissionFSM(logger *zap.SugaredLogger, id string) *fsm.FSM {
	return fsm.NewFSM(
		string(models.SubmissionIdle),
		submissionTransitions,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debugf("Payment form %s: %s -> %s (%s)", id, e.Src, e.Dst, e.Event)
			},
		},
	)
}

// fire runs event on the machine. Callers check Can first; a refused
// transition is logged and leaves the machine untouched.
func (c *Controller) fire(event string) {
	if err := c.fsm.Event(context.Background(), event); err != nil {
		c.logger.Warnf("Payment form %s: transition %s refused in %s: %v", c.id, event, c.fsm.Current(), err)
	}
}

func (c *Controller) status() models.SubmissionStatus {
	return models.SubmissionStatus(c.fsm.Current())
}
