// Package jobspec describes jobs in terms of job types: a Signature names
// the type of every input and output, and a Job carries the JSON payload
// that is checked against it.
package jobspec

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/jobtypes/pkg/jobtype"
)

var (
	// ErrAbstractOutput is raised when an output type cannot encode values
	ErrAbstractOutput = errors.New("jobspec: output type is abstract")

	// ErrUnknownSignature is raised when a job names a signature that is not loaded
	ErrUnknownSignature = errors.New("jobspec: unknown signature")
)

// Signature declares a job's inputs and outputs as type expressions.
type Signature struct {
	Name    string            `json:"name" yaml:"name"`
	Inputs  map[string]string `json:"inputs" yaml:"inputs"`
	Outputs map[string]string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// JobID identifies a job.
type JobID string

// Job is a request to run a signature with a JSON payload of inputs.
type Job struct {
	ID        JobID          `json:"id" yaml:"id"`
	Signature string         `json:"signature" yaml:"signature"`
	Payload   map[string]any `json:"payload" yaml:"payload"`
}

// File is the on-disk layout of a signature file.
type File struct {
	Signatures []Signature `yaml:"signatures"`
	Jobs       []Job       `yaml:"jobs,omitempty"`
}

// LoadFile reads signatures and jobs from a YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}
	return &f, nil
}

// Signature returns the signature called name.
func (f *File) Signature(name string) (Signature, error) {
	for _, s := range f.Signatures {
		if s.Name == name {
			return s, nil
		}
	}
	return Signature{}, fmt.Errorf("%w: %q", ErrUnknownSignature, name)
}

// Resolved is a signature whose type expressions have been parsed.
type Resolved struct {
	Name    string
	Inputs  map[string]*jobtype.Type
	Outputs map[string]*jobtype.Type
}

// Resolve parses every type expression of s against reg.
func (s Signature) Resolve(reg *jobtype.Registry) (*Resolved, error) {
	inputs, err := resolveAll(reg, s.Inputs)
	if err != nil {
		return nil, fmt.Errorf("signature %s: input %w", s.Name, err)
	}
	outputs, err := resolveAll(reg, s.Outputs)
	if err != nil {
		return nil, fmt.Errorf("signature %s: output %w", s.Name, err)
	}
	for _, name := range slices.Sorted(maps.Keys(outputs)) {
		if outputs[name].Abstract() {
			return nil, fmt.Errorf("signature %s: output %s (%s): %w", s.Name, name, outputs[name], ErrAbstractOutput)
		}
	}
	return &Resolved{Name: s.Name, Inputs: inputs, Outputs: outputs}, nil
}

func resolveAll(reg *jobtype.Registry, exprs map[string]string) (map[string]*jobtype.Type, error) {
	out := make(map[string]*jobtype.Type, len(exprs))
	for _, name := range slices.Sorted(maps.Keys(exprs)) {
		t, err := reg.ParseType(exprs[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// ParseInputs decodes each declared input from payload. Every declared
// input must be present and no other keys are allowed.
func (r *Resolved) ParseInputs(ctx context.Context, reg *jobtype.Registry, payload map[string]any) (map[string]any, error) {
	return convertAll(ctx, r.Name, "input", r.Inputs, payload, reg.ParseJSON)
}

// FormatOutputs encodes each declared output as JSON.
func (r *Resolved) FormatOutputs(ctx context.Context, reg *jobtype.Registry, values map[string]any) (map[string]any, error) {
	return convertAll(ctx, r.Name, "output", r.Outputs, values, reg.FormatJSON)
}

type convertFunc func(ctx context.Context, t *jobtype.Type, v any) (any, error)

func convertAll(
	ctx context.Context,
	sig, kind string,
	types map[string]*jobtype.Type,
	values map[string]any,
	fn convertFunc,
) (map[string]any, error) {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if _, ok := types[name]; !ok {
			return nil, jobtype.ShapeErrorf("signature %s has no %s %q", sig, kind, name)
		}
	}
	out := make(map[string]any, len(types))
	for _, name := range slices.Sorted(maps.Keys(types)) {
		v, ok := values[name]
		if !ok {
			return nil, jobtype.ShapeErrorf("signature %s: missing %s %q", sig, kind, name)
		}
		converted, err := fn(ctx, types[name], v)
		if err != nil {
			return nil, fmt.Errorf("signature %s: %s %s: %w", sig, kind, name, err)
		}
		out[name] = converted
	}
	return out, nil
}

// Check resolves the job's signature and decodes its payload.
func (f *File) Check(ctx context.Context, reg *jobtype.Registry, job Job) (map[string]any, error) {
	sig, err := f.Signature(job.Signature)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	resolved, err := sig.Resolve(reg)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	inputs, err := resolved.ParseInputs(ctx, reg, job.Payload)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, err)
	}
	return inputs, nil
}
