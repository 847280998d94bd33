package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (state, action, reward, next state, done)
// tuple generated by one environment step.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	NextState *mat.VecDense
	Done      bool
}

// NewTransition creates a Transition from the TimeStep an action was
// taken in and the TimeStep which resulted from taking that action.
// The reward and termination of the transition are those of next.
func NewTransition(step TimeStep, action int, next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    next.Reward,
		NextState: next.Observation,
		Done:      next.Last(),
	}
}

// Equal returns whether two transitions hold the same data
func (t Transition) Equal(other Transition) bool {
	return t.Action == other.Action && t.Reward == other.Reward &&
		t.Done == other.Done && mat.Equal(t.State, other.State) &&
		mat.Equal(t.NextState, other.NextState)
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | Action: %v  |  Reward: %.2f  |  "+
		"Done: %v", t.Action, t.Reward, t.Done)
}
