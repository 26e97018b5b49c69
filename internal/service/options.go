package service

import (
	"fmt"

	"github.com/stacklok/toolhive-content-sync/internal/versions"
)

const (
	// DefaultPageSize is the page size used when no limit is given
	DefaultPageSize = 100
	// MaxPageSize caps the limit a caller may request
	MaxPageSize = 1000
)

// Option is a function that sets an option for service operations
type Option func(o any) error

type limitOption interface {
	setLimit(limit int) error
}

type offsetOption interface {
	setOffset(offset int) error
}

type nameOption interface {
	setName(name string) error
}

type constraintOption interface {
	setConstraint(constraint string) error
}

// WithLimit sets the page size for the ListPackages operation
func WithLimit(limit int) Option {
	return func(o any) error {
		if limit <= 0 || limit > MaxPageSize {
			return fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidArgument, MaxPageSize, limit)
		}

		switch o := o.(type) {
		case limitOption:
			return o.setLimit(limit)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithOffset sets the number of packages to skip for the ListPackages operation
func WithOffset(offset int) Option {
	return func(o any) error {
		if offset < 0 {
			return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidArgument, offset)
		}

		switch o := o.(type) {
		case offsetOption:
			return o.setOffset(offset)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithName restricts the ListPackages operation to one package name
func WithName(name string) Option {
	return func(o any) error {
		if name == "" {
			return fmt.Errorf("%w: empty package name", ErrInvalidArgument)
		}

		switch o := o.(type) {
		case nameOption:
			return o.setName(name)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// WithConstraint restricts the ListPackages operation to versions matching
// a semver constraint
func WithConstraint(constraint string) Option {
	return func(o any) error {
		if constraint == "" {
			return fmt.Errorf("%w: empty version constraint", ErrInvalidArgument)
		}

		switch o := o.(type) {
		case constraintOption:
			return o.setConstraint(constraint)
		default:
			return fmt.Errorf("invalid option type: %T", o)
		}
	}
}

// ListPackagesOptions holds the resolved options of a ListPackages call
type ListPackagesOptions struct {
	Limit  int
	Offset int
	Name   string
	Match  versions.Matcher
}

func (o *ListPackagesOptions) setLimit(limit int) error {
	o.Limit = limit
	return nil
}

func (o *ListPackagesOptions) setOffset(offset int) error {
	o.Offset = offset
	return nil
}

func (o *ListPackagesOptions) setName(name string) error {
	o.Name = name
	return nil
}

func (o *ListPackagesOptions) setConstraint(constraint string) error {
	match, err := versions.ParseConstraint(constraint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	o.Match = match
	return nil
}

func newListPackagesOptions(opts ...Option) (*ListPackagesOptions, error) {
	o := &ListPackagesOptions{Limit: DefaultPageSize}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}
