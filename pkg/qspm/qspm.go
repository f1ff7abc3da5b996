// Package qspm scores strategic alternatives with a Quantitative Strategic
// Planning Matrix.
package qspm

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iwvelando/bizcalc/internal/baseline"
	"github.com/iwvelando/bizcalc/pkg/constants"
	"github.com/iwvelando/bizcalc/pkg/report"
	"github.com/iwvelando/bizcalc/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Name identifies the calculator.
const Name = "qspm"

// Factor kinds. Weights of each kind must sum to 1.0.
const (
	KindInternal = "internal"
	KindExternal = "external"
)

// Factor is one key success factor with its weight and an attractiveness
// score per strategy. A score of 0 marks the factor as not relevant.
type Factor struct {
	Name   string    `json:"name" yaml:"name" validate:"required"`
	Kind   string    `json:"kind" yaml:"kind" validate:"oneof=internal external"`
	Weight float64   `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
	Scores []float64 `json:"scores" yaml:"scores" validate:"dive,qspmscore"`
}

// Input is a complete matrix.
type Input struct {
	Strategies []string `json:"strategies" yaml:"strategies" validate:"min=2,unique,dive,required"`
	Factors    []Factor `json:"factors" yaml:"factors" validate:"min=1,dive"`
}

// StrategyScore is the total attractiveness score of one strategy.
type StrategyScore struct {
	Strategy string
	Index    int
	Total    float64
	Rank     int
}

// Result holds the weighted matrix and the ranking.
type Result struct {
	Input          Input
	Weighted       [][]float64
	Scores         []StrategyScore
	Ranked         []StrategyScore
	InternalWeight float64
	ExternalWeight float64
	Margin         float64
}

// DefaultInput returns a small illustrative matrix. The baseline carries no
// qualitative factors, so it is unused.
func DefaultInput(_ baseline.Params) Input {
	return Input{
		Strategies: []string{"Market penetration", "Product development"},
		Factors: []Factor{
			{Name: "Strong brand", Kind: KindInternal, Weight: 0.6, Scores: []float64{4, 3}},
			{Name: "Limited R&D capacity", Kind: KindInternal, Weight: 0.4, Scores: []float64{3, 1}},
			{Name: "Growing demand", Kind: KindExternal, Weight: 0.5, Scores: []float64{3, 4}},
			{Name: "New competitors", Kind: KindExternal, Weight: 0.5, Scores: []float64{2, 3}},
		},
	}
}

// Calculate computes TAS_j = sum over i of weight_i * score_ij and ranks the
// strategies. Ties keep input order.
func Calculate(in Input) (Result, error) {
	if err := validation.Struct(in); err != nil {
		return Result{}, err
	}

	res := Result{Input: in, Weighted: make([][]float64, len(in.Factors))}
	var hasInternal, hasExternal bool
	for i, f := range in.Factors {
		if len(f.Scores) != len(in.Strategies) {
			return Result{}, validation.NewFieldError(fmt.Sprintf("factors[%d].scores", i),
				"has %d scores, expected one per strategy (%d)", len(f.Scores), len(in.Strategies))
		}
		switch f.Kind {
		case KindInternal:
			hasInternal = true
			res.InternalWeight += f.Weight
		case KindExternal:
			hasExternal = true
			res.ExternalWeight += f.Weight
		}
	}
	if hasInternal && math.Abs(res.InternalWeight-1) > constants.WeightTolerance {
		return Result{}, validation.NewFieldError("factors", "internal weights sum to %.3f, expected 1.0", res.InternalWeight)
	}
	if hasExternal && math.Abs(res.ExternalWeight-1) > constants.WeightTolerance {
		return Result{}, validation.NewFieldError("factors", "external weights sum to %.3f, expected 1.0", res.ExternalWeight)
	}

	res.Scores = make([]StrategyScore, len(in.Strategies))
	for j, s := range in.Strategies {
		res.Scores[j] = StrategyScore{Strategy: s, Index: j}
	}
	for i, f := range in.Factors {
		res.Weighted[i] = make([]float64, len(in.Strategies))
		for j, score := range f.Scores {
			w := f.Weight * score
			res.Weighted[i][j] = w
			res.Scores[j].Total += w
		}
	}

	res.Ranked = append([]StrategyScore(nil), res.Scores...)
	sort.SliceStable(res.Ranked, func(a, b int) bool {
		return res.Ranked[a].Total > res.Ranked[b].Total
	})
	for i := range res.Ranked {
		res.Ranked[i].Rank = i + 1
		res.Scores[res.Ranked[i].Index].Rank = i + 1
	}
	res.Margin = res.Ranked[0].Total - res.Ranked[1].Total
	return res, nil
}

// Winner returns the highest scoring strategy.
func (r Result) Winner() StrategyScore {
	return r.Ranked[0]
}

// Report renders the result.
func (r Result) Report() report.Report {
	rep := report.New(Name, "Quantitative strategic planning matrix")
	for _, s := range r.Ranked {
		rep.Add(metricKey(s), fmt.Sprintf("#%d %s (TAS)", s.Rank, s.Strategy), s.Total, report.UnitScore)
	}
	rep.Add("margin", "Lead of the top strategy", r.Margin, report.UnitScore)

	if r.Margin == 0 {
		rep.Note("Tie: %s and %s score equally; %s is listed first by input order.",
			r.Ranked[0].Strategy, r.Ranked[1].Strategy, r.Ranked[0].Strategy)
	} else {
		rep.Note("Recommended strategy: %s.", r.Winner().Strategy)
	}

	columns := []string{"factor", "weight"}
	for _, s := range r.Input.Strategies {
		columns = append(columns, "AS:"+s, "TAS:"+s)
	}
	table := &report.Table{Columns: columns}
	for i, f := range r.Input.Factors {
		row := []float64{float64(i + 1), f.Weight}
		for j := range r.Input.Strategies {
			row = append(row, f.Scores[j], r.Weighted[i][j])
		}
		table.Rows = append(table.Rows, row)
	}
	rep.Table = table

	x := make([]float64, len(r.Scores))
	totals := make([]float64, len(r.Scores))
	for j, s := range r.Scores {
		x[j] = float64(j + 1)
		totals[j] = s.Total
	}
	rep.Chart = &report.Chart{
		Title:  "Total attractiveness by strategy",
		XLabel: "Strategy (input order)",
		YLabel: "TAS",
		X:      x,
		Series: []report.Series{{Name: "TAS", Values: totals}},
	}
	return *rep
}

func metricKey(s StrategyScore) string {
	return fmt.Sprintf("tas.%d", s.Index)
}

// Decode reads a matrix in YAML or JSON (JSON is valid YAML).
func Decode(r io.Reader) (Input, error) {
	var in Input
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return Input{}, fmt.Errorf("failed to decode QSPM matrix: %w", err)
	}
	for i := range in.Factors {
		in.Factors[i].Kind = strings.ToLower(strings.TrimSpace(in.Factors[i].Kind))
	}
	return in, nil
}

// LoadFile reads a matrix file.
func LoadFile(path string) (Input, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Input{}, fmt.Errorf("failed to open QSPM matrix: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Decode(f)
}
