// Package transform runs per-file output transforms (HTML minification, CSS
// post-processing) after a file has been rendered or compiled.
package transform

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// Transform rewrites the content of one output file.
type Transform interface {
	Name() string
	// Applies reports whether the transform handles outputPath.
	Applies(outputPath string) bool
	Apply(ctx context.Context, outputPath string, content []byte) ([]byte, error)
}

// Chain applies transforms in registration order.
type Chain struct {
	transforms []Transform
}

// NewChain returns a chain of the given transforms. Nil entries are ignored.
func NewChain(ts ...Transform) *Chain {
	c := &Chain{}
	for _, t := range ts {
		c.Add(t)
	}
	return c
}

// Add appends t unless a transform with the same name is already registered.
func (c *Chain) Add(t Transform) {
	if t == nil {
		return
	}
	for _, existing := range c.transforms {
		if existing.Name() == t.Name() {
			return
		}
	}
	c.transforms = append(c.transforms, t)
}

// Names lists the registered transforms in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.transforms))
	for i, t := range c.transforms {
		names[i] = t.Name()
	}
	return names
}

// Only returns a chain restricted to the named transforms, keeping order.
func (c *Chain) Only(include ...string) (*Chain, error) {
	want := make(map[string]struct{}, len(include))
	for _, n := range include {
		want[n] = struct{}{}
	}
	out := &Chain{}
	for _, t := range c.transforms {
		if _, ok := want[t.Name()]; ok {
			out.transforms = append(out.transforms, t)
		}
	}
	if len(include) > 0 && len(out.transforms) == 0 {
		return nil, fmt.Errorf("no transforms matched %v", include)
	}
	return out, nil
}

// Apply runs every applicable transform over content. The first failure
// stops the chain and is reported with the transform name and output path.
func (c *Chain) Apply(ctx context.Context, outputPath string, content []byte) ([]byte, error) {
	if c == nil {
		return content, nil
	}
	for _, t := range c.transforms {
		if !t.Applies(outputPath) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := t.Apply(ctx, outputPath, content)
		if err != nil {
			return nil, errors.TransformFailed(t.Name(), outputPath, err)
		}
		content = out
	}
	return content, nil
}

// Func adapts a function to Transform.
type Func struct {
	ID      string
	Match   func(outputPath string) bool
	Rewrite func(ctx context.Context, outputPath string, content []byte) ([]byte, error)
}

func (f Func) Name() string { return f.ID }

func (f Func) Applies(outputPath string) bool { return f.Match == nil || f.Match(outputPath) }

func (f Func) Apply(ctx context.Context, outputPath string, content []byte) ([]byte, error) {
	return f.Rewrite(ctx, outputPath, content)
}
