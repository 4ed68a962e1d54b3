package simulate

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-playspace/pkg/tracking"
)

// DefaultTolerance is the relative scale error counted as converged.
const DefaultTolerance = 0.02

// Report summarises the inferred scale over a run.
type Report struct {
	Ticks       uint64         `json:"ticks"`
	Stats       tracking.Stats `json:"stats"`
	TargetScale float64        `json:"target_scale"`
	FinalScale  float64        `json:"final_scale"`
	MeanScale   float64        `json:"mean_scale"`
	StdDevScale float64        `json:"stddev_scale"`
	MedianScale float64        `json:"median_scale"`

	// ConvergedAt is the first tick after which every sample stayed within
	// tolerance of the target; zero when the run never settled.
	ConvergedAt uint64  `json:"converged_at"`
	Converged   bool    `json:"converged"`
	FinalError  float64 `json:"final_error"` // relative
}

// Recorder collects snapshots for a Report. Register Observe with
// Tracker.OnUpdate.
type Recorder struct {
	target    float64
	tolerance float64

	mu     sync.Mutex
	ticks  []uint64
	scales []float64
	last   tracking.Snapshot
}

// NewRecorder expects the run to converge on target.
func NewRecorder(target, tolerance float64) *Recorder {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Recorder{target: target, tolerance: tolerance}
}

// Observe records one snapshot.
func (r *Recorder) Observe(s tracking.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, s.Tick)
	r.scales = append(r.scales, s.Scale)
	r.last = s
}

// Report computes the summary so far.
func (r *Recorder) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := Report{
		Ticks:       r.last.Tick,
		Stats:       r.last.Stats,
		TargetScale: r.target,
	}
	if len(r.scales) == 0 {
		return rep
	}

	rep.FinalScale = r.scales[len(r.scales)-1]
	rep.MeanScale, rep.StdDevScale = stat.MeanStdDev(r.scales, nil)
	if len(r.scales) == 1 {
		rep.StdDevScale = 0
	}

	sorted := append([]float64(nil), r.scales...)
	sort.Float64s(sorted)
	rep.MedianScale = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	if r.target > 0 {
		rep.FinalError = math.Abs(rep.FinalScale-r.target) / r.target
		settled := -1
		for i := len(r.scales) - 1; i >= 0; i-- {
			if math.Abs(r.scales[i]-r.target)/r.target > r.tolerance {
				break
			}
			settled = i
		}
		if settled >= 0 {
			rep.Converged = true
			rep.ConvergedAt = r.ticks[settled]
		}
	}
	return rep
}
