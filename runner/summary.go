package runner

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/stats"
)

const histogramBins = 10

// Summary collects the results of a bench run.
type Summary struct {
	Results []JobResult
	Weak    bool
	Wall    time.Duration
	Wrong   int

	// per-job solve time in milliseconds and node counts
	TimeMs stats.Statistic
	Nodes  stats.Statistic
}

func Summarize(results []JobResult, weak bool, wall time.Duration) *Summary {
	s := &Summary{Results: results, Weak: weak, Wall: wall}
	for _, r := range results {
		s.TimeMs.Push(float64(r.Elapsed.Microseconds()) / 1000)
		s.Nodes.Push(float64(r.Nodes))
	}
	s.Wrong = lo.CountBy(results, func(r JobResult) bool {
		return !r.Correct(weak)
	})
	return s
}

// Failures returns the jobs whose value did not match the expected one.
func (s *Summary) Failures() []JobResult {
	return lo.Filter(s.Results, func(r JobResult, _ int) bool {
		return !r.Correct(s.Weak)
	})
}

func moveString(m bb.Bitboard) string {
	if m == bb.Empty {
		return "-"
	}
	return bb.LowestSquare(m).String()
}

// Fprint writes a per-job table, the aggregate statistics and a histogram
// of solve times.
func (s *Summary) Fprint(w io.Writer) error {
	var ss strings.Builder
	fmt.Fprintf(&ss, "%-44s%-8s%-10s%-6s%-14s%-12s\n", "Position", "Value", "Expected", "Move", "Nodes", "Time (ms)")
	for _, r := range s.Results {
		expected := "-"
		if r.Job.Expected != nil {
			expected = fmt.Sprint(*r.Job.Expected)
		}
		mark := ""
		if !r.Correct(s.Weak) {
			mark = " WRONG"
		}
		fmt.Fprintf(&ss, "%-44s%-8d%-10s%-6s%-14d%-12.3f%s\n", r.Job.Name, r.Value, expected,
			moveString(r.Move), r.Nodes, float64(r.Elapsed.Microseconds())/1000, mark)
	}
	fmt.Fprintf(&ss, "\nPositions: %d, wrong: %d, wall time: %v\n", len(s.Results), s.Wrong, s.Wall)
	fmt.Fprintf(&ss, "Time (ms): %s\n", s.TimeMs.String())
	fmt.Fprintf(&ss, "Nodes:     %s\n", s.Nodes.String())
	if s.TimeMs.Count() > 0 {
		fmt.Fprintf(&ss, "Mean nodes per second: %.0f\n", s.nodesPerSecond())
	}
	if _, err := io.WriteString(w, ss.String()); err != nil {
		return err
	}
	if len(s.Results) < 2 || s.TimeMs.Min() == s.TimeMs.Max() {
		return nil
	}
	times := lo.Map(s.Results, func(r JobResult, _ int) float64 {
		return float64(r.Elapsed.Microseconds()) / 1000
	})
	if _, err := io.WriteString(w, "\nSolve time histogram (ms):\n"); err != nil {
		return err
	}
	return histogram.Fprint(w, histogram.Hist(histogramBins, times), histogram.Linear(40))
}

func (s *Summary) nodesPerSecond() float64 {
	total := lo.SumBy(s.Results, func(r JobResult) time.Duration {
		return r.Elapsed
	})
	if total <= 0 {
		return 0
	}
	nodes := lo.SumBy(s.Results, func(r JobResult) uint64 {
		return r.Nodes
	})
	return float64(nodes) / total.Seconds()
}
