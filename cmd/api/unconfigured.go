package main

import (
	"context"
	"fmt"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// unconfigured stands in for a backend whose settings are missing; every call
// fails with ErrNotConfigured naming the settings to provide.
type unconfigured string

func (u unconfigured) err() error {
	return fmt.Errorf("%s: %w", string(u), domain.ErrNotConfigured)
}

func (u unconfigured) Read(context.Context, string) ([]byte, error) { return nil, u.err() }

func (u unconfigured) Complete(context.Context, domain.ChatRequest) (string, error) {
	return "", u.err()
}

func (u unconfigured) Embed(context.Context, string) ([]float32, error) { return nil, u.err() }
