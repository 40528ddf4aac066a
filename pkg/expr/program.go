package expr

import (
	"fmt"
	"sync"
)

// Options configures compilation and evaluation limits.
type Options struct {
	// Epsilon is the tolerance for floating-point equality.
	// Default: 1e-6
	Epsilon float64

	// MaxLength is the maximum condition source length in bytes.
	// Default: 4096
	MaxLength int

	// MaxDepth is the maximum expression nesting depth.
	// Default: 32
	MaxDepth int
}

// DefaultOptions returns the default compilation options.
func DefaultOptions() *Options {
	return &Options{
		Epsilon:   1e-6,
		MaxLength: 4096,
		MaxDepth:  32,
	}
}

// Program is a compiled condition. Programs are immutable and safe for
// concurrent evaluation.
type Program struct {
	source  string
	root    node
	fields  []string
	epsilon float64
}

// Compile parses and validates a condition. A nil opts uses
// DefaultOptions. Compilation failures are always *SyntaxError.
func Compile(source string, opts *Options) (*Program, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if source == "" {
		return nil, &SyntaxError{Message: "empty condition"}
	}
	if len(source) > opts.MaxLength {
		return nil, &SyntaxError{
			Message: fmt.Sprintf("condition length %d exceeds maximum %d bytes", len(source), opts.MaxLength),
		}
	}

	p, err := newParser(source, opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}

	epsilon := opts.Epsilon
	if epsilon <= 0 {
		epsilon = DefaultOptions().Epsilon
	}

	return &Program{
		source:  source,
		root:    root,
		fields:  p.fieldNames(),
		epsilon: epsilon,
	}, nil
}

// Source returns the original condition text.
func (p *Program) Source() string {
	return p.source
}

// Fields returns the sorted set of field names the condition references.
// Callers use it to narrow evidence to the values actually consulted.
func (p *Program) Fields() []string {
	out := make([]string, len(p.fields))
	copy(out, p.fields)
	return out
}

// Eval evaluates the program against env and returns the resulting value
// (int64, float64, bool, or string). Failures are *UnboundFieldError,
// *ArithmeticError, or *TypeError.
func (p *Program) Eval(env Environment) (any, error) {
	ev := &evaluator{env: env, epsilon: p.epsilon}
	return ev.eval(p.root)
}

// EvalBool evaluates the program and reduces the result to its boolean
// interpretation. For audit rules, true means the violation condition held.
func (p *Program) EvalBool(env Environment) (bool, error) {
	val, err := p.Eval(env)
	if err != nil {
		return false, err
	}
	return truthy(val), nil
}

// cacheEntry memoizes one compilation, successful or not, so a malformed
// rulebook condition is diagnosed once rather than per evaluation.
type cacheEntry struct {
	prog *Program
	err  error
}

// Cache compiles conditions once and memoizes the result by source text.
// It is safe for concurrent use.
type Cache struct {
	opts    *Options
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates a compilation cache. A nil opts uses DefaultOptions.
func NewCache(opts *Options) *Cache {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Cache{
		opts:    opts,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the compiled program for source, compiling on first use.
func (c *Cache) Get(source string) (*Program, error) {
	c.mu.RLock()
	entry, ok := c.entries[source]
	c.mu.RUnlock()
	if ok {
		return entry.prog, entry.err
	}

	prog, err := Compile(source, c.opts)

	c.mu.Lock()
	c.entries[source] = cacheEntry{prog: prog, err: err}
	c.mu.Unlock()

	return prog, err
}

// Len returns the number of cached compilations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
