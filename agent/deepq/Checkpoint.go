package deepq

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// checkpoint is the serialized form of a DeepQ agent. The replay
// buffer is not part of a checkpoint.
type checkpoint struct {
	Epsilon       float64
	Losses        []float64
	ValueFunction []byte
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
// The online and target parameters, solver state, and exploration rate
// are serialized.
func (d *DeepQ) MarshalBinary() ([]byte, error) {
	vf, err := d.vf.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	c := checkpoint{Epsilon: d.epsilon, Losses: d.losses, ValueFunction: vf}
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("marshalBinary: %v", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
// The checkpoint must have been created by an agent with the same
// architecture as d.
func (d *DeepQ) UnmarshalBinary(data []byte) error {
	var c checkpoint
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return fmt.Errorf("unmarshalBinary: %v", err)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("unmarshalBinary: invalid exploration rate %v",
			c.Epsilon)
	}

	if err := d.vf.UnmarshalBinary(c.ValueFunction); err != nil {
		return err
	}
	d.epsilon = c.Epsilon
	d.losses = c.Losses
	return nil
}

// Save saves the agent to a file at path
func (d *DeepQ) Save(path string) error {
	data, err := d.MarshalBinary()
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	return nil
}

// Load restores the agent from a file at path that was written by Save
func (d *DeepQ) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := d.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return nil
}
