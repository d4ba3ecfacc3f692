package scheduler

import (
	"sync/atomic"
	"time"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/registry"
	"github.com/hfmix/audiomixer/source"
	"github.com/sirupsen/logrus"
)

// FrameFunc is called once per frame with the current load-shedding
// audibility threshold. It is responsible for mixing and dispatching
// every listener's output; the scheduler only owns timing and the
// per-source pre/post-frame bookkeeping around it.
type FrameFunc func(minAudibilityThreshold float64)

// StatsFunc is called at most once per frame, whenever the stats
// interval has elapsed, with the frame index and the trailing sleep
// ratio at that moment.
type StatsFunc func(frameIndex uint64, trailingSleepRatio, throttleRatio float64)

// Scheduler drives the mix loop at audiomixer.FrameInterval cadence.
// It owns no source state directly; it drains the registry's command
// queue, calls PreFrameCheck/Advance on every registered source around
// the caller-supplied FrameFunc, and adjusts the audibility threshold
// from the trailing-sleep-ratio throttle state machine.
type Scheduler struct {
	reg   *registry.Registry
	clock Clock

	startUS    uint64
	frameIndex uint64

	trailingSleepRatio         float64
	performanceThrottlingRatio float64

	lastStatsFrame uint64
	statsFn        StatsFunc

	Metrics PerformanceMetrics

	terminated int32
}

// New constructs a Scheduler bound to reg and clock. The scheduler's
// frame clock starts counting from the first RunFrame call.
func New(reg *registry.Registry, clock Clock) *Scheduler {
	return &Scheduler{reg: reg, clock: clock}
}

// OnStats registers a callback invoked whenever the stats interval
// elapses, in addition to the per-frame FrameFunc.
func (s *Scheduler) OnStats(fn StatsFunc) {
	s.statsFn = fn
}

// Terminate requests the loop stop after the current frame completes.
func (s *Scheduler) Terminate() {
	atomic.StoreInt32(&s.terminated, 1)
}

// Terminated reports whether Terminate has been called.
func (s *Scheduler) Terminated() bool {
	return atomic.LoadInt32(&s.terminated) == 1
}

// MinAudibilityThreshold returns the current load-shedding gate,
// derived from performance_throttling_ratio.
func (s *Scheduler) MinAudibilityThreshold() float64 {
	return audiomixer.LoudnessToDistanceRatio / (2 * (1 - s.performanceThrottlingRatio))
}

// ThrottleRatio returns the current performance_throttling_ratio.
func (s *Scheduler) ThrottleRatio() float64 {
	return s.performanceThrottlingRatio
}

// TrailingSleepRatio returns the current trailing sleep ratio.
func (s *Scheduler) TrailingSleepRatio() float64 {
	return s.trailingSleepRatio
}

// RunFrame blocks until the next frame deadline, then runs one frame:
// drain the registry's command queue, pre-frame-check every source,
// invoke fn with the current audibility threshold, advance every
// source, and update the throttle state machine.
func (s *Scheduler) RunFrame(fn FrameFunc) {
	if s.frameIndex == 0 {
		s.startUS = s.clock.NowUS()
	}

	deadline := s.startUS + s.frameIndex*audiomixer.FrameIntervalUS
	s.sleepUntil(deadline)

	s.reg.DrainCommands()

	sources := s.allSources()
	for _, src := range sources {
		src.Buffer.PreFrameCheck()
	}

	start := time.Now()
	fn(s.MinAudibilityThreshold())
	s.Metrics.RecordFrame(time.Since(start))

	for _, src := range sources {
		src.Buffer.Advance()
	}

	s.frameIndex++
	s.maybeEmitStats()
	s.evaluateThrottle()
}

// sleepUntil blocks (via the real clock) until deadlineUS has been
// reached, recording the observed sleep fraction into the trailing
// average. With a FakeClock it records the same fraction but returns
// at once, without waiting or advancing the clock.
func (s *Scheduler) sleepUntil(deadlineUS uint64) {
	now := s.clock.NowUS()
	var usecToSleep uint64
	if deadlineUS > now {
		usecToSleep = deadlineUS - now
		if _, isFake := s.clock.(*FakeClock); !isFake {
			time.Sleep(time.Duration(usecToSleep) * time.Microsecond)
		}
	}

	ratio := float64(usecToSleep) / float64(audiomixer.FrameIntervalUS)
	s.trailingSleepRatio = 0.99*s.trailingSleepRatio + 0.01*ratio
}

// allSources gathers every source across every registered listener.
func (s *Scheduler) allSources() []*source.Source {
	listeners := s.reg.Iter()
	out := make([]*source.Source, 0, len(listeners)*2)
	for _, l := range listeners {
		out = append(out, l.Sources()...)
	}
	return out
}

// evaluateThrottle runs the debounced throttle state machine, checked
// only once every audiomixer.TrailingAverageFrames frames.
func (s *Scheduler) evaluateThrottle() {
	if s.frameIndex%audiomixer.TrailingAverageFrames != 0 {
		return
	}

	old := s.performanceThrottlingRatio
	switch {
	case s.trailingSleepRatio <= 0.10:
		s.performanceThrottlingRatio = old + 0.5*(1-old)
	case s.trailingSleepRatio >= 0.20 && old > 0:
		s.performanceThrottlingRatio = old - 0.02
		if s.performanceThrottlingRatio < 0 {
			s.performanceThrottlingRatio = 0
		}
	}

	if s.performanceThrottlingRatio != old {
		logrus.WithFields(logrus.Fields{
			"function":              "Scheduler.evaluateThrottle",
			"trailing_sleep_ratio":  s.trailingSleepRatio,
			"old_throttle":          old,
			"new_throttle":          s.performanceThrottlingRatio,
			"min_audibility_thresh": s.MinAudibilityThreshold(),
		}).Info("performance throttle adjusted")
	}
}

func (s *Scheduler) maybeEmitStats() {
	if s.statsFn == nil {
		return
	}
	elapsedUS := (s.frameIndex - s.lastStatsFrame) * audiomixer.FrameIntervalUS
	if elapsedUS < audiomixer.StatsIntervalUS {
		return
	}
	s.lastStatsFrame = s.frameIndex
	s.statsFn(s.frameIndex, s.trailingSleepRatio, s.performanceThrottlingRatio)
}
