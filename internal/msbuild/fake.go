package msbuild

import (
	"context"
	"fmt"
	"sync"
)

// FakeReader is an in-memory Reader for tests. Solutions map to ordered
// project lists; properties are keyed by project path then property name.
// Missing property entries report Absent, mirroring the companion tool.
type FakeReader struct {
	mu         sync.Mutex
	Solutions  map[string][]string
	Properties map[string]map[string]PropValue
	SdkStyle   map[string]bool

	// FailProjects marks project paths whose property reads fail as unreadable.
	FailProjects map[string]bool
	// FailSolutions marks solution paths whose listing fails.
	FailSolutions map[string]bool
}

// NewFakeReader returns an empty FakeReader.
func NewFakeReader() *FakeReader {
	return &FakeReader{
		Solutions:     map[string][]string{},
		Properties:    map[string]map[string]PropValue{},
		SdkStyle:      map[string]bool{},
		FailProjects:  map[string]bool{},
		FailSolutions: map[string]bool{},
	}
}

// AddProject registers a project under a solution with the given properties.
func (f *FakeReader) AddProject(solution, project string, props map[string]PropValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Solutions[solution] = append(f.Solutions[solution], project)
	if props == nil {
		props = map[string]PropValue{}
	}
	f.Properties[project] = props
}

// SetProperty sets one property on a registered project.
func (f *FakeReader) SetProperty(project, name string, v PropValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Properties[project] == nil {
		f.Properties[project] = map[string]PropValue{}
	}
	f.Properties[project][name] = v
}

func (f *FakeReader) GetProperty(_ context.Context, projectPath, property string, _ Scope) (PropValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailProjects[projectPath] {
		return PropValue{}, fmt.Errorf("open %s: permission denied", projectPath)
	}
	props, ok := f.Properties[projectPath]
	if !ok {
		return PropValue{Kind: Absent}, nil
	}
	v, ok := props[property]
	if !ok {
		return PropValue{Kind: Absent}, nil
	}
	return v, nil
}

func (f *FakeReader) ProjectsFromSolution(_ context.Context, solutionPath string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSolutions[solutionPath] {
		return nil, fmt.Errorf("open %s: no such file", solutionPath)
	}
	return append([]string(nil), f.Solutions[solutionPath]...), nil
}

func (f *FakeReader) IsSdkStyle(_ context.Context, projectPath string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SdkStyle[projectPath], nil
}

// Value is shorthand for a Present PropValue.
func Value(s string) PropValue { return PropValue{Kind: Present, Value: s} }

// EmptyValue is shorthand for an Empty PropValue.
func EmptyValue() PropValue { return PropValue{Kind: Empty} }

// AbsentValue is shorthand for an Absent PropValue.
func AbsentValue() PropValue { return PropValue{Kind: Absent} }
