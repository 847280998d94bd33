// Package checkpointer implements functionality for periodically
// saving objects, such as agents, during an experiment
package checkpointer

// Serializable is an object that can be saved to a file
type Serializable interface {
	Save(path string) error
}

// Checkpointer checkpoints/saves serializable objects based on the
// number of finished episodes
type Checkpointer interface {
	Checkpoint(episode int) error
}
