// Package adapter defines the image operations the pipeline delegates and
// resolves the configured implementations.
package adapter

import (
	"context"
	"reflect"

	"go.uber.org/multierr"

	"github.com/roboco-io/picturize/internal/format"
	"github.com/roboco-io/picturize/internal/ir"
)

// Transformer produces an art-direction crop.
type Transformer interface {
	Transform(ctx context.Context, sourcePath string, d ir.Descriptor) ([]byte, error)
}

// Resizer produces one breakpoint.
type Resizer interface {
	Resize(ctx context.Context, sourcePath string, bp ir.Breakpoint) ([]byte, error)
}

// Converter re-encodes an image.
type Converter interface {
	Convert(ctx context.Context, sourcePath string, f format.Format) ([]byte, error)
}

// SetupHook is implemented by adapters that must prepare before the first call.
type SetupHook interface {
	Setup(ctx context.Context) error
}

// TeardownHook is implemented by adapters holding resources between calls.
type TeardownHook interface {
	Teardown(ctx context.Context) error
}

// TransformFunc adapts a function to Transformer.
type TransformFunc func(ctx context.Context, sourcePath string, d ir.Descriptor) ([]byte, error)

func (f TransformFunc) Transform(ctx context.Context, sourcePath string, d ir.Descriptor) ([]byte, error) {
	return f(ctx, sourcePath, d)
}

// ResizeFunc adapts a function to Resizer.
type ResizeFunc func(ctx context.Context, sourcePath string, bp ir.Breakpoint) ([]byte, error)

func (f ResizeFunc) Resize(ctx context.Context, sourcePath string, bp ir.Breakpoint) ([]byte, error) {
	return f(ctx, sourcePath, bp)
}

// ConvertFunc adapts a function to Converter.
type ConvertFunc func(ctx context.Context, sourcePath string, f format.Format) ([]byte, error)

func (fn ConvertFunc) Convert(ctx context.Context, sourcePath string, f format.Format) ([]byte, error) {
	return fn(ctx, sourcePath, f)
}

// Set holds the adapter of each stage. A nil adapter disables its stage.
type Set struct {
	Transformer Transformer
	Resizer     Resizer
	Converter   Converter
}

// distinct returns the adapters of s, each once.
func (s Set) distinct() []any {
	var out []any
	for _, a := range []any{s.Transformer, s.Resizer, s.Converter} {
		if a == nil || contains(out, a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func contains(list []any, a any) bool {
	for _, x := range list {
		if sameAdapter(x, a) {
			return true
		}
	}
	return false
}

// sameAdapter reports whether a and b are the same adapter. Func-backed
// adapters cannot be compared and always count as different.
func sameAdapter(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// Setup runs the setup hook of every adapter in s once.
func (s Set) Setup(ctx context.Context) error {
	for _, a := range s.distinct() {
		if hook, ok := a.(SetupHook); ok {
			if err := hook.Setup(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Teardown runs every teardown hook, collecting all errors.
func (s Set) Teardown(ctx context.Context) error {
	var errs error
	for _, a := range s.distinct() {
		if hook, ok := a.(TeardownHook); ok {
			errs = multierr.Append(errs, hook.Teardown(ctx))
		}
	}
	return errs
}
