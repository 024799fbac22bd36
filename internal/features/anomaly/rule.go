package anomaly

import (
	"context"
	"fmt"
	"time"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/format"

	"github.com/d5/tengo/v2"
	"go.uber.org/zap"
)

const (
	ruleTimeout   = 100 * time.Millisecond
	ruleMaxAllocs = 10000
)

// Rule is a compiled scripted check. Scripts read row and amount and set
// flag to true to report the row.
type Rule struct {
	Reason   string
	compiled *tengo.Compiled
	log      *zap.Logger
}

func CompileRule(def catalog.AnomalyRule, log *zap.Logger) (*Rule, error) {
	if log == nil {
		log = zap.NewNop()
	}

	script := tengo.NewScript([]byte(def.Script))
	script.SetMaxAllocs(ruleMaxAllocs)
	for name, zero := range map[string]any{"row": map[string]any{}, "amount": 0.0, "flag": false} {
		if err := script.Add(name, zero); err != nil {
			return nil, err
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule %q: %w", def.Reason, err)
	}
	return &Rule{Reason: def.Reason, compiled: compiled, log: log}, nil
}

// Match runs the script against one row. A script error counts as no match.
func (r *Rule) Match(ctx context.Context, row format.Row, amount float64) bool {
	c := r.compiled.Clone()
	if err := c.Set("row", map[string]any(row)); err != nil {
		r.log.Warn("Anomaly rule rejected row", zap.String("rule", r.Reason), zap.Error(err))
		return false
	}
	if err := c.Set("amount", amount); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, ruleTimeout)
	defer cancel()
	if err := c.RunContext(ctx); err != nil {
		r.log.Warn("Anomaly rule failed", zap.String("rule", r.Reason), zap.Error(err))
		return false
	}
	return c.Get("flag").Bool()
}
