package signals

// EngagementWindow is one ~1 Hz sample of normalized engagement signals.
// Every field except Time lies in [0, 1] after normalization; EmotionalSpike
// is 0 or 1.
type EngagementWindow struct {
	Time              float64 `json:"time"`
	AudioEnergy       float64 `json:"audioEnergy"`
	SpeechIntensity   float64 `json:"speechIntensity"`
	MotionScore       float64 `json:"motionScore"`
	FacePresence      float64 `json:"facePresence"`
	TextDensity       float64 `json:"textDensity"`
	SceneChangeRate   float64 `json:"sceneChangeRate"`
	EmotionalSpike    float64 `json:"emotionalSpike"`
	VocalExcitement   float64 `json:"vocalExcitement"`
	EmotionIntensity  float64 `json:"emotionIntensity"`
	AudioVariance     float64 `json:"audioVariance"`
	KeywordIntensity  float64 `json:"keywordIntensity"`
	CuriosityTrigger  float64 `json:"curiosityTrigger"`
	FillerDensity     float64 `json:"fillerDensity"`
	BoredomScore      float64 `json:"boredomScore"`
	HookScore         float64 `json:"hookScore"`
	NarrativeProgress float64 `json:"narrativeProgress"`
	Score             float64 `json:"score"`
}

// Spike reports whether the window carries an emotional spike.
func (w EngagementWindow) Spike() bool {
	return w.EmotionalSpike >= 0.5
}

// TranscriptCue is a timed transcript line. The scoring fields are optional
// upstream; NormalizeCues fills any that are missing from the text.
type TranscriptCue struct {
	Start            float64  `json:"start"`
	End              float64  `json:"end"`
	Text             string   `json:"text"`
	KeywordIntensity *float64 `json:"keywordIntensity,omitempty"`
	CuriosityTrigger *float64 `json:"curiosityTrigger,omitempty"`
	FillerDensity    *float64 `json:"fillerDensity,omitempty"`
}

// Keyword returns the cue's keyword intensity, deriving it from the text when
// upstream did not provide one.
func (c TranscriptCue) Keyword() float64 {
	if c.KeywordIntensity != nil {
		return *c.KeywordIntensity
	}
	return keywordIntensity(c.Text)
}

// Curiosity returns the cue's curiosity trigger strength.
func (c TranscriptCue) Curiosity() float64 {
	if c.CuriosityTrigger != nil {
		return *c.CuriosityTrigger
	}
	return curiosityTrigger(c.Text)
}

// Filler returns the cue's filler-word density.
func (c TranscriptCue) Filler() float64 {
	if c.FillerDensity != nil {
		return *c.FillerDensity
	}
	return fillerDensity(c.Text)
}

// Duration returns End - Start.
func (c TranscriptCue) Duration() float64 {
	return c.End - c.Start
}

// Overlap returns how many seconds of [start, end) the cue covers.
func (c TranscriptCue) Overlap(start, end float64) float64 {
	lo := max(c.Start, start)
	hi := min(c.End, end)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
