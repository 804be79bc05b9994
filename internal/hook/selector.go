package hook

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kikiluvv/vibecut/internal/signals"
	"github.com/kikiluvv/vibecut/internal/tuning"
)

const (
	// preferredBonus nudges comparable windows toward the preferred length.
	preferredBonus = 0.015

	// auditPassScore is the audit floor a hook must reach to pass.
	auditPassScore = 60.0
)

// Selector runs the partition-first hook search.
type Selector struct {
	scorer Scorer
	tuning tuning.Tuning
}

// NewSelector creates a selector. A nil scorer uses the signal blend plus the
// transcript overlap bonus.
func NewSelector(t tuning.Tuning, scorer Scorer) *Selector {
	if scorer == nil {
		scorer = NewCompositeScorer([]Scorer{NewSignalScorer(), NewTranscriptScorer()}, nil)
	}
	return &Selector{scorer: scorer, tuning: t}
}

// PickTopCandidates searches for hooks with the default scorers.
func PickTopCandidates(windows []signals.EngagementWindow, cues []signals.TranscriptCue, durationSeconds float64, t tuning.Tuning) Result {
	return NewSelector(t, nil).Pick(windows, cues, durationSeconds)
}

// Pick partitions the timeline into sections, keeps the best window per
// section and ranks the section winners. Windows and cues must already be
// normalized. The result always carries a selected candidate.
func (s *Selector) Pick(windows []signals.EngagementWindow, cues []signals.TranscriptCue, durationSeconds float64) Result {
	timeline := signals.Timeline(durationSeconds, windows, cues)
	if timeline <= 0 || (len(windows) == 0 && len(cues) == 0) {
		c := s.synthetic(timeline)
		return Result{Selected: c, TopCandidates: []Candidate{c}, Sections: 1}
	}

	sections := s.sectionCount(timeline)
	sectionLen := timeline / float64(sections)
	durations := s.durations(timeline)

	winners := make([]Candidate, 0, sections)
	for i := 0; i < sections; i++ {
		lo := float64(i) * sectionLen
		hi := lo + sectionLen

		var best Candidate
		found := false
		for k := 0; ; k++ {
			start := lo + float64(k)
			if start >= hi {
				break
			}
			for _, d := range durations {
				if start+d > timeline+1e-9 {
					continue
				}
				c := s.evaluate(i, sections, start, d, windows, cues)
				if !found || better(c, best) {
					best, found = c, true
				}
			}
		}
		if found {
			winners = append(winners, best)
		}
	}

	if len(winners) == 0 {
		c := s.synthetic(timeline)
		return Result{Selected: c, TopCandidates: []Candidate{c}, Sections: sections}
	}

	sort.SliceStable(winners, func(i, j int) bool { return better(winners[i], winners[j]) })
	top := winners
	if len(top) > s.tuning.HookTopN {
		top = top[:s.tuning.HookTopN]
	}

	return Result{Selected: top[0], TopCandidates: top, Sections: sections}
}

// sectionCount gives each section room for at least two maximum-length hooks.
func (s *Selector) sectionCount(timeline float64) int {
	n := int(timeline / (2 * s.tuning.HookMaxSec))
	return max(1, min(n, s.tuning.HookSections))
}

// durations lists whole-second hook lengths within bounds. Material shorter
// than the minimum gets a single hook spanning all of it.
func (s *Selector) durations(timeline float64) []float64 {
	if timeline < s.tuning.HookMinSec {
		return []float64{timeline}
	}
	var out []float64
	for d := s.tuning.HookMinSec; d <= s.tuning.HookMaxSec+1e-9; d++ {
		out = append(out, d)
	}
	return out
}

func (s *Selector) evaluate(section, sections int, start, d float64, windows []signals.EngagementWindow, cues []signals.TranscriptCue) Candidate {
	end := start + d
	span := Span{
		Start:    start,
		Duration: d,
		Windows:  windowsIn(windows, start, end),
		Cues:     cuesIn(cues, start, end),
	}

	raw := s.scorer.Score(span)
	if d >= s.tuning.HookPreferredMinSec {
		raw += preferredBonus
	}

	basis := BasisSignal
	var text []string
	for _, c := range span.Cues {
		text = append(text, c.Text)
		if c.Keyword() > 0 || c.Curiosity() > 0 {
			basis = BasisTranscript
		}
	}
	if len(span.Windows) == 0 && len(span.Cues) == 0 {
		basis = BasisSynthetic
	}

	audit := auditScore(span)
	return Candidate{
		Start:       start,
		Duration:    d,
		Score:       100 * math.Min(1, raw),
		AuditScore:  audit,
		AuditPassed: audit >= auditPassScore,
		Text:        strings.Join(text, " "),
		Reason:      fmt.Sprintf("section %d/%d, %s evidence over %d windows", section+1, sections, basis, len(span.Windows)),
		Basis:       basis,
		Section:     section,
	}
}

func (s *Selector) synthetic(timeline float64) Candidate {
	d := s.tuning.HookMinSec
	if timeline > 0 {
		d = math.Min(d, timeline)
	}
	return Candidate{
		Start:    0,
		Duration: d,
		Reason:   "no signal windows or transcript; hook placed at the opening",
		Basis:    BasisSynthetic,
	}
}

// auditScore rates how trustworthy a hook is on a 0..100 scale: how much of
// it is backed by windows, and how little of it is boring or filler.
func auditScore(span Span) float64 {
	if span.Duration <= 0 {
		return 0
	}
	coverage := math.Min(1, float64(len(span.Windows))/span.Duration)

	var boredom, filler float64
	if n := float64(len(span.Windows)); n > 0 {
		for _, w := range span.Windows {
			boredom += w.BoredomScore
			filler += w.FillerDensity
		}
		boredom /= n
		filler /= n
	}
	return 100 * (0.5*coverage + 0.3*(1-boredom) + 0.2*(1-filler))
}

// windowsIn returns the windows with start <= Time < end. windows must be
// sorted by Time.
func windowsIn(windows []signals.EngagementWindow, start, end float64) []signals.EngagementWindow {
	lo := sort.Search(len(windows), func(i int) bool { return windows[i].Time >= start })
	hi := sort.Search(len(windows), func(i int) bool { return windows[i].Time >= end })
	return windows[lo:hi]
}

// cuesIn returns the cues overlapping [start, end).
func cuesIn(cues []signals.TranscriptCue, start, end float64) []signals.TranscriptCue {
	var out []signals.TranscriptCue
	for _, c := range cues {
		if c.Start >= end {
			break
		}
		if c.Overlap(start, end) > 0 {
			out = append(out, c)
		}
	}
	return out
}
