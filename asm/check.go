package asm

import (
	"github.com/hashicorp/go-multierror"
)

// Check runs both assembly passes without stopping at the first problem and
// returns every problem found, or nil if Assemble would succeed. Pass nil for
// cfg to use defaults.
func Check(instrs []Instruction, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var result *multierror.Error
	report := func(err error) {
		result = multierror.Append(result, err)
	}
	if err := cfg.Validate(); err != nil {
		report(err)
	}

	invalid := map[int]bool{}
	layout, _ := computePositions(instrs, func(i int, err error) {
		invalid[i] = true
		report(err)
	})
	_ = layout.resolveLabels(instrs, report)

	ctx := NewContext(layout, cfg.Params)
	for i, instr := range instrs {
		if invalid[i] {
			continue
		}
		ctx.seek(i)
		if err := instr.Render(ctx); err != nil {
			report(locate(err, i, layout.Position(i)))
		}
	}

	if len(invalid) == 0 {
		depth, err := stackDepth(instrs, layout, cfg.StrictStack)
		if err == nil {
			_, err = declaredStackSize(cfg, depth)
		}
		if err != nil {
			report(err)
		}
	}
	return result.ErrorOrNil()
}
