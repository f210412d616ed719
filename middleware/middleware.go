package middleware

import (
	"context"
	"errors"

	"github.com/sweetpotato0/gitpilot/message"
)

// ErrEmptyInput is returned by the input validator for blank user input.
var ErrEmptyInput = errors.New("input cannot be empty")

// Context carries state through a middleware chain for one agent turn
type Context struct {
	// Original user input
	Input string

	// Messages at the start of the turn
	Messages []*message.Message

	// Final assistant response
	Response *message.Message

	// Metadata for passing data between middlewares
	Metadata map[string]any

	context context.Context
}

// NewContext creates a middleware context wrapping ctx
func NewContext(ctx context.Context) *Context {
	return &Context{
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context
func (c *Context) Context() context.Context {
	return c.context
}

// Handler is the function called to pass control to the next middleware
type Handler func(*Context) error

// Middleware intercepts an agent turn. Returning an error stops the chain.
type Middleware interface {
	// Name identifies the middleware for logging and debugging
	Name() string
	// Execute runs the middleware logic and calls next to continue the chain
	Execute(ctx *Context, next Handler) error
}

// Chain is a sequence of middleware executed around the turn handler
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a chain from the given middlewares
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware to the chain
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// List returns the middlewares in execution order
func (c *Chain) List() []Middleware {
	return append([]Middleware(nil), c.middlewares...)
}

// Execute runs the chain, ending at finalHandler
func (c *Chain) Execute(ctx *Context, finalHandler Handler) error {
	return c.execute(ctx, 0, finalHandler)
}

func (c *Chain) execute(ctx *Context, index int, finalHandler Handler) error {
	if index >= len(c.middlewares) {
		return finalHandler(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, finalHandler)
	}
	return c.middlewares[index].Execute(ctx, next)
}
