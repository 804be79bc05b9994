package style

import (
	"fmt"
	"math"
	"strings"

	"github.com/kikiluvv/vibecut/internal/signals"
)

// openerSeconds bounds the transcript lines treated as the video's opener.
const openerSeconds = 12.0

var (
	directAddressPhrases = []string{" you ", " you'", " your ", " guys", " everyone", "welcome", " hey ", " y'all"}
	exclaimPhrases       = []string{"!", "oh my god", "no way", "what the", "insane", "crazy", " wow", "let's go"}
	instructionPhrases   = []string{"how to", " step", "first,", " first ", " next", "tutorial", " learn", "let me show", "here's how"}
	storyPhrases         = []string{"so then", " then ", "when i", " story", "happened", "one day", "years ago", "that's when"}
)

// features is the aggregate the style scores are computed from.
type features struct {
	agg           signals.Aggregate
	spikeDensity  float64
	directAddress float64
	exclaim       float64
	instruction   float64
	storyCue      float64
	hasWindows    bool
	hasTranscript bool
}

// Classify infers the content style and niche from normalized windows and
// cues. It is deterministic and never fails: with no windows and no transcript
// it returns a low-confidence vlog profile.
func Classify(windows []signals.EngagementWindow, cues []signals.TranscriptCue, durationSeconds float64) Profile {
	f := extract(windows, cues, durationSeconds)
	if !f.hasWindows && !f.hasTranscript {
		return finish(Vlog, 0.2, f, []string{"no signal windows or transcript; defaulting to vlog"})
	}

	scores := scoreStyles(f)

	best, second := Style(0), Style(-1)
	for _, s := range Styles()[1:] {
		if scores[s] > scores[best] {
			best = s
		}
	}
	for _, s := range Styles() {
		if s == best {
			continue
		}
		if second < 0 || scores[s] > scores[second] {
			second = s
		}
	}

	margin := scores[best] - scores[second]
	confidence := 0.3 + 0.5*scores[best] + 1.5*margin
	if !f.hasWindows {
		confidence *= 0.75
	}
	confidence = math.Max(0.05, math.Min(0.97, confidence))

	rationale := []string{
		fmt.Sprintf("%s scored %.2f", best, scores[best]),
		fmt.Sprintf("runner-up %s scored %.2f", second, scores[second]),
	}
	rationale = append(rationale, evidence(best, f)...)

	return finish(best, confidence, f, rationale)
}

func finish(s Style, confidence float64, f features, rationale []string) Profile {
	t := tuningFor(s)
	niche := t.niche
	if s == Vlog && (f.agg.EmotionIntensity+f.agg.VocalExcitement)/2 > 0.65 {
		niche = HighEnergy
		rationale = append(rationale, "energetic delivery moves vlog into high_energy")
	}
	return Profile{
		Style:         s,
		Niche:         niche,
		Confidence:    confidence,
		Rationale:     rationale,
		TempoBias:     t.tempoBias * confidence,
		InterruptBias: t.interruptBias * confidence,
		HookBias:      t.hookBias * confidence,
	}
}

func extract(windows []signals.EngagementWindow, cues []signals.TranscriptCue, durationSeconds float64) features {
	f := features{
		agg:           signals.AggregateWindows(windows),
		hasWindows:    len(windows) > 0,
		hasTranscript: len(cues) > 0,
	}
	f.spikeDensity = math.Min(1, f.agg.SpikeRatio*4)

	if !f.hasTranscript {
		return f
	}

	limit := openerSeconds
	if durationSeconds > 0 {
		limit = math.Min(limit, math.Max(3, durationSeconds*0.25))
	}
	var opener []string
	instruction, story := 0, 0
	for _, c := range cues {
		if c.Start < limit {
			opener = append(opener, c.Text)
		}
		if signals.ContainsAny(c.Text, instructionPhrases...) {
			instruction++
		}
		if signals.ContainsAny(c.Text, storyPhrases...) {
			story++
		}
	}
	openerText := strings.Join(opener, " ")
	if signals.ContainsAny(openerText, directAddressPhrases...) {
		f.directAddress = 1
	}
	if signals.ContainsAny(openerText, exclaimPhrases...) {
		f.exclaim = 1
	}
	f.instruction = math.Min(1, 2*float64(instruction)/float64(len(cues)))
	f.storyCue = math.Min(1, 2*float64(story)/float64(len(cues)))
	return f
}

func scoreStyles(f features) [styleCount]float64 {
	a := f.agg
	calm := func(v float64) float64 {
		if !f.hasWindows {
			return 0
		}
		return 1 - v
	}

	var s [styleCount]float64
	s[Reaction] = 0.30*a.EmotionIntensity + 0.25*a.VocalExcitement + 0.20*f.spikeDensity + 0.15*a.FacePresence + 0.10*f.exclaim
	s[Gaming] = 0.30*a.SceneChangeRate + 0.25*a.MotionScore + 0.20*a.AudioVariance + 0.15*a.VocalExcitement + 0.10*f.spikeDensity
	s[Tutorial] = 0.35*a.SpeechIntensity + 0.25*f.instruction + 0.20*a.TextDensity + 0.20*calm(a.EmotionIntensity)
	s[Vlog] = 0.30*a.FacePresence + 0.25*a.SpeechIntensity + 0.25*f.directAddress + 0.20*a.MotionScore
	s[Story] = 0.35*a.SpeechIntensity + 0.25*a.NarrativeProgress + 0.20*f.storyCue + 0.20*calm(a.SceneChangeRate)
	return s
}

func evidence(s Style, f features) []string {
	a := f.agg
	var out []string
	switch s {
	case Reaction:
		out = append(out, fmt.Sprintf("emotion %.2f, vocal excitement %.2f, spike ratio %.2f", a.EmotionIntensity, a.VocalExcitement, a.SpikeRatio))
		if f.exclaim > 0 {
			out = append(out, "opener is exclamatory")
		}
	case Gaming:
		out = append(out, fmt.Sprintf("scene changes %.2f, motion %.2f, audio variance %.2f", a.SceneChangeRate, a.MotionScore, a.AudioVariance))
	case Tutorial:
		out = append(out, fmt.Sprintf("speech %.2f, on-screen text %.2f", a.SpeechIntensity, a.TextDensity))
		if f.instruction > 0 {
			out = append(out, "transcript uses instructional language")
		}
	case Vlog:
		out = append(out, fmt.Sprintf("face presence %.2f, speech %.2f", a.FacePresence, a.SpeechIntensity))
		if f.directAddress > 0 {
			out = append(out, "opener addresses the viewer directly")
		}
	case Story:
		out = append(out, fmt.Sprintf("speech %.2f, narrative progress %.2f", a.SpeechIntensity, a.NarrativeProgress))
		if f.storyCue > 0 {
			out = append(out, "transcript uses narrative language")
		}
	}
	return out
}
