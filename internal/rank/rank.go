// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank re-scores a batch of cached results for one query. The score
// starts at each record's seed rank and three additive passes push
// low-quality pages down: tracker density, content thinness, and a year in
// the title. Lower scores sort first.
package rank

import (
	"log/slog"
	"math"
	"regexp"
	"sort"

	"github.com/pdiddy/websearch/pkg/types"
)

const (
	defaultPenalty       = 20
	defaultTrackerWeight = 2

	// thinRatio is the fraction of the batch median word count at or below
	// which a page counts as thin.
	thinRatio = 0.5
)

// DefaultAllowlist holds host substrings never counted as trackers.
var DefaultAllowlist = []string{
	"cdn",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
	"ajax.googleapis.com",
	"jsdelivr",
	"unpkg",
}

// yearPattern matches a 20xx year anywhere in a title.
var yearPattern = regexp.MustCompile(`20\d{2}`)

// Filter applies the ranking passes.
type Filter struct {
	penalty       float64
	trackerWeight float64
	allowlist     []string
	logger        *slog.Logger
}

// New builds a Filter. resultCount is the configured target result count
// and sets the fixed penalty; zero or less uses 20.
func New(cfg types.RankConfig, resultCount int, logger *slog.Logger) *Filter {
	penalty := float64(resultCount)
	if resultCount <= 0 {
		penalty = defaultPenalty
	}
	weight := cfg.TrackerWeight
	if weight <= 0 {
		weight = defaultTrackerWeight
	}
	allowlist := cfg.Allowlist
	if allowlist == nil {
		allowlist = DefaultAllowlist
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		penalty:       penalty,
		trackerWeight: weight,
		allowlist:     allowlist,
		logger:        logger,
	}
}

// Apply returns records sorted by final score, best first, with Rank set
// to the rounded score. Ties keep their input order. The input slice is
// not modified.
func (f *Filter) Apply(records []types.ResultRecord) []types.ResultRecord {
	if len(records) == 0 {
		return []types.ResultRecord{}
	}

	signals := make([]pageSignals, len(records))
	for i, r := range records {
		signals[i] = analyze(r.Content, r.Link, f.allowlist)
	}

	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = float64(r.Rank)
	}
	for _, pass := range [][]float64{
		f.trackerPass(signals),
		f.thinnessPass(signals),
		f.recencyPass(records),
	} {
		for i, delta := range pass {
			scores[i] += delta
		}
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	out := make([]types.ResultRecord, len(records))
	for pos, i := range order {
		out[pos] = records[i]
		out[pos].Rank = int(math.Round(scores[i]))
	}

	f.logger.Debug("rank filter applied", slog.Int("records", len(records)))
	return out
}

// trackerPass penalises pages referencing more third-party hosts than the
// batch median, and adds the scaled raw count to every page.
func (f *Filter) trackerPass(signals []pageSignals) []float64 {
	counts := make([]float64, len(signals))
	for i, s := range signals {
		counts[i] = float64(s.trackers)
	}
	med := median(counts)

	deltas := make([]float64, len(signals))
	for i, c := range counts {
		if c > med {
			deltas[i] += f.penalty
		}
		deltas[i] += c * f.trackerWeight
	}
	return deltas
}

// thinnessPass penalises pages whose visible word count is at or below
// half the batch median.
func (f *Filter) thinnessPass(signals []pageSignals) []float64 {
	words := make([]float64, len(signals))
	for i, s := range signals {
		words[i] = float64(s.words)
	}
	med := median(words)

	deltas := make([]float64, len(signals))
	if med == 0 {
		return deltas
	}
	for i, w := range words {
		if w/med <= thinRatio {
			deltas[i] = f.penalty
		}
	}
	return deltas
}

// recencyPass penalises titles containing a 20xx year.
func (f *Filter) recencyPass(records []types.ResultRecord) []float64 {
	deltas := make([]float64, len(records))
	for i, r := range records {
		if yearPattern.MatchString(r.Title) {
			deltas[i] = f.penalty
		}
	}
	return deltas
}

// median returns the median of values; the mean of the middle pair for an
// even count.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
