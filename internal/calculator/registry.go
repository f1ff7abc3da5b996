package calculator

import (
	"fmt"
	"strings"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/breakeven"
	"github.com/iwvelando/bizcalc/pkg/ccc"
	"github.com/iwvelando/bizcalc/pkg/clv"
	"github.com/iwvelando/bizcalc/pkg/credit"
	"github.com/iwvelando/bizcalc/pkg/eoq"
	"github.com/iwvelando/bizcalc/pkg/leasing"
	"github.com/iwvelando/bizcalc/pkg/pricing"
	"github.com/iwvelando/bizcalc/pkg/qspm"
	"github.com/iwvelando/bizcalc/pkg/report"
	"go.uber.org/zap"
)

// Registry holds the calculators in menu order.
type Registry struct {
	calculators []Calculator
	byName      map[string]Calculator
}

// NewRegistry registers every calculator.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{byName: map[string]Calculator{}}
	r.register(&adapter[breakeven.Input, breakeven.Result]{
		name:        breakeven.Name,
		title:       "Break-even analysis",
		description: "Units and revenue needed to cover fixed costs, margin of safety and operating leverage",
		defaults:    breakeven.DefaultInput,
		calculate:   withoutLogger(breakeven.Calculate),
		logger:      logger,
	})
	r.register(&adapter[ccc.Input, ccc.Result]{
		name:        ccc.Name,
		title:       "Cash conversion cycle",
		description: "Days cash is tied up in inventory and receivables net of payables",
		defaults:    ccc.DefaultInput,
		calculate:   withoutLogger(ccc.Calculate),
		logger:      logger,
	})
	r.register(&adapter[clv.Input, clv.Result]{
		name:        clv.Name,
		title:       "Customer lifetime value",
		description: "Discounted profit per customer compared with acquisition cost",
		defaults:    clv.DefaultInput,
		calculate:   withoutLogger(clv.Calculate),
		logger:      logger,
	})
	r.register(&adapter[credit.Input, credit.Result]{
		name:        credit.Name,
		title:       "Credit policy",
		description: "Whether offering an early-payment discount adds value",
		defaults:    credit.DefaultInput,
		calculate:   withoutLogger(credit.Calculate),
		logger:      logger,
	})
	r.register(&adapter[qspm.Input, qspm.Result]{
		name:         qspm.Name,
		title:        "QSPM strategy scoring",
		description:  "Ranks strategies by weighted attractiveness scores",
		requiresFile: true,
		defaults:     qspm.DefaultInput,
		calculate:    withoutLogger(qspm.Calculate),
		load:         qspm.LoadFile,
		logger:       logger,
	})
	r.register(&adapter[eoq.Input, eoq.Result]{
		name:        eoq.Name,
		title:       "Economic order quantity",
		description: "Order size that minimizes ordering plus holding cost",
		defaults:    eoq.DefaultInput,
		calculate:   withoutLogger(eoq.Calculate),
		logger:      logger,
	})
	r.register(&adapter[leasing.Input, leasing.Result]{
		name:        leasing.Name,
		title:       "Loan vs lease",
		description: "After-tax present value cost of buying with a loan against leasing",
		defaults:    leasing.DefaultInput,
		calculate:   leasing.CalculateWithLogger,
		logger:      logger,
	})
	r.register(&adapter[pricing.Input, pricing.Result]{
		name:        pricing.Name,
		title:       "Pricing sensitivity",
		description: "Profit across a range of price changes under constant elasticity",
		defaults:    pricing.DefaultInput,
		calculate:   withoutLogger(pricing.Calculate),
		logger:      logger,
	})
	return r
}

func (r *Registry) register(c Calculator) {
	r.calculators = append(r.calculators, c)
	r.byName[c.Name()] = c
}

// All returns the calculators in menu order.
func (r *Registry) All() []Calculator {
	return append([]Calculator(nil), r.calculators...)
}

// Names returns the calculator names in menu order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.calculators))
	for _, c := range r.calculators {
		names = append(names, c.Name())
	}
	return names
}

// Lookup finds a calculator by name, ignoring case.
func (r *Registry) Lookup(name string) (Calculator, error) {
	c, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownCalculator, name, strings.Join(r.Names(), ", "))
	}
	return c, nil
}

// Run looks up a calculator and runs it.
func (r *Registry) Run(name string, p baseline.Params, inputs map[string]any) (report.Report, error) {
	c, err := r.Lookup(name)
	if err != nil {
		return report.Report{}, err
	}
	return c.Run(p, inputs)
}
