// Package cocode assembles symbolic stack-machine instructions into immutable
// code artifacts.
//
// Instructions are built with the asm package or decoded from a YAML listing
// (see package listing):
//
//	code, err := cocode.Assemble([]asm.Instruction{
//		asm.LoadFast("x"),
//		asm.LoadConst(1),
//		asm.Add(),
//		asm.Return(),
//	}, cocode.WithParams([]string{"x"}), cocode.WithName("inc"))
//
// The returned *bytecode.Code is immutable and safe for concurrent use. The
// same instruction sequence may be assembled any number of times, including
// concurrently, with different options.
package cocode

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/cocode-io/cocode/asm"
	"github.com/cocode-io/cocode/bytecode"
	"github.com/cocode-io/cocode/listing"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Option configures an assembly.
type Option func(*options)

type options struct {
	edits       []func(*asm.Config)
	logger      *zerolog.Logger
	concurrency int
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// config returns a copy of base, or the default configuration when base is
// nil, with the options applied.
func (o *options) config(base *asm.Config) *asm.Config {
	var cfg asm.Config
	if base != nil {
		cfg = *base
		cfg.Params = slices.Clone(base.Params)
	} else {
		cfg = *asm.DefaultConfig()
	}
	for _, edit := range o.edits {
		edit(&cfg)
	}
	if o.logger != nil {
		cfg.Logger = o.logger
	}
	return &cfg
}

func (o *options) edit(fn func(*asm.Config)) {
	o.edits = append(o.edits, fn)
}

// WithName sets the artifact name.
func WithName(name string) Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) { cfg.Name = name })
	}
}

// WithFilename sets the filename recorded in the artifact.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) { cfg.Filename = filename })
	}
}

// WithFirstLineNo sets the first line number recorded in the artifact.
func WithFirstLineNo(line int) Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) { cfg.FirstLineNo = line })
	}
}

// WithParams sets the parameter names: positional parameters followed by
// keyword-only parameters. Parameters are the first entries of the varnames
// pool.
func WithParams(positional []string, kwOnly ...string) Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) {
			cfg.Params = append(slices.Clone(positional), kwOnly...)
			cfg.ArgCount = len(positional)
			cfg.KwOnlyArgCount = len(kwOnly)
		})
	}
}

// WithFlags sets the artifact flags.
func WithFlags(flags bytecode.Flags) Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) { cfg.Flags = flags })
	}
}

// WithStackSize declares a fixed stack size instead of computing it.
func WithStackSize(size int) Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) { cfg.StackSize = size })
	}
}

// WithStrictStack makes stack underflow an assembly error.
func WithStrictStack() Option {
	return func(o *options) {
		o.edit(func(cfg *asm.Config) { cfg.StrictStack = true })
	}
}

// WithLogger sets the logger that receives per-pass debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithConcurrency bounds the number of jobs AssembleAll runs at once. The
// default is GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// Assemble assembles instructions into an artifact.
func Assemble(instrs []asm.Instruction, opts ...Option) (*bytecode.Code, error) {
	o := collectOptions(opts...)
	return asm.Assemble(instrs, o.config(nil))
}

// Check reports every problem that would make Assemble fail.
func Check(instrs []asm.Instruction, opts ...Option) error {
	o := collectOptions(opts...)
	return asm.Check(instrs, o.config(nil))
}

// AssembleListing decodes a YAML listing and assembles it. The listing header
// provides the configuration; options override it.
func AssembleListing(data []byte, filename string, opts ...Option) (*bytecode.Code, error) {
	p, err := listing.Parse(data, filename)
	if err != nil {
		return nil, err
	}
	return AssembleProgram(p, opts...)
}

// AssembleFile reads, decodes and assembles the listing at path.
func AssembleFile(path string, opts ...Option) (*bytecode.Code, error) {
	p, err := listing.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return AssembleProgram(p, opts...)
}

// AssembleProgram assembles a decoded listing. Options override the listing
// header.
func AssembleProgram(p *listing.Program, opts ...Option) (*bytecode.Code, error) {
	o := collectOptions(opts...)
	return asm.Assemble(p.Instructions, o.config(&p.Config))
}

// CheckProgram reports every problem that would make AssembleProgram fail.
func CheckProgram(p *listing.Program, opts ...Option) error {
	o := collectOptions(opts...)
	return asm.Check(p.Instructions, o.config(&p.Config))
}

// Job is one unit of work for AssembleAll.
type Job struct {
	// Name identifies the job in errors. It is also used as the artifact name
	// when the configuration does not set one.
	Name string

	Instructions []asm.Instruction

	// Config is the job's configuration. Nil means the defaults. Options
	// passed to AssembleAll are applied on top of it.
	Config *asm.Config
}

// JobError reports the failure of one AssembleAll job.
type JobError struct {
	Index int
	Name  string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// AssembleAll assembles independent jobs in parallel. Results are returned in
// job order. The first assembly failure cancels the jobs that have not started
// and is returned as a *JobError. If ctx is canceled before every job has
// started, the context's error is returned as is.
func AssembleAll(ctx context.Context, jobs []Job, opts ...Option) ([]*bytecode.Code, error) {
	o := collectOptions(opts...)
	limit := o.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	results := make([]*bytecode.Code, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cfg := o.config(job.Config)
			if cfg.Name == "" {
				cfg.Name = job.Name
			}
			code, err := asm.Assemble(job.Instructions, cfg)
			if err != nil {
				return &JobError{Index: i, Name: job.Name, Err: err}
			}
			results[i] = code
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
