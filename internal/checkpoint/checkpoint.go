// Package checkpoint persists trained parameters as a gob-encoded list of
// named tensors. The format is opaque to the rest of the pipeline: the core
// hands over its parameter set and a destination path, nothing more.
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// Record is one serialized parameter.
type Record struct {
	Name  string
	Shape []int
	Data  []float32
}

// Save writes the parameters to path, replacing any existing file.
func Save[B tensor.Backend](path string, params []*nn.Parameter[B]) error {
	records := make([]Record, len(params))
	for i, p := range params {
		raw := p.Tensor().Raw()
		shape := p.Tensor().Shape()
		records[i] = Record{
			Name:  p.Name(),
			Shape: append([]int(nil), shape...),
			Data:  append([]float32(nil), raw.AsFloat32()...),
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(records); err != nil {
		return fmt.Errorf("checkpoint: encode %s: %w", path, err)
	}
	return nil
}

// Load restores parameter values from path into params, matching by position
// and verifying name and shape. The model must have been built with the same
// topology that produced the checkpoint.
func Load[B tensor.Backend](path string, params []*nn.Parameter[B]) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	defer f.Close()

	var records []Record
	if err := gob.NewDecoder(f).Decode(&records); err != nil {
		return fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	if len(records) != len(params) {
		return fmt.Errorf("checkpoint: %s has %d parameters, model has %d", path, len(records), len(params))
	}

	for i, rec := range records {
		p := params[i]
		if rec.Name != p.Name() {
			return fmt.Errorf("checkpoint: parameter %d is %q, model expects %q", i, rec.Name, p.Name())
		}
		shape := p.Tensor().Shape()
		if !shape.Equal(rec.Shape) {
			return fmt.Errorf("checkpoint: parameter %q has shape %v, model expects %v", rec.Name, rec.Shape, shape)
		}
		dst := p.Tensor().Raw().AsFloat32()
		if len(rec.Data) != len(dst) {
			return fmt.Errorf("checkpoint: parameter %q has %d values, model expects %d", rec.Name, len(rec.Data), len(dst))
		}
		copy(dst, rec.Data)
	}
	return nil
}
