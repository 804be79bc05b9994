package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/vibecut/internal/pacing"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH")
	}
}

func TestFilterBuilder(t *testing.T) {
	got := NewFilterBuilder().Trim(1.25, 3).Speed(1.4).Zoom(1.08, 1080, 1920).Emphasize().Build()
	want := "trim=start=1.25:end=3,setpts=(PTS-STARTPTS)/1.4,crop=iw/1.08:ih/1.08,scale=1080:1920,setsar=1,eq=saturation=1.15:contrast=1.05"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestFilterBuilderNoOps(t *testing.T) {
	got := NewFilterBuilder().Zoom(1, 1080, 1920).Zoom(1.2, 0, 0).Fit(0, 0).ATempo(1).Vertical(0, 0).Build()
	if got != "" {
		t.Errorf("expected empty chain, got %q", got)
	}
	if NewFilterBuilder().Speed(0.5).Build() != "setpts=PTS-STARTPTS" {
		t.Error("slow-down should not retime")
	}
}

func TestRenderableSegments(t *testing.T) {
	in := []pacing.Segment{
		{Start: -1, End: 2, Speed: 0.5},
		{Start: 2, End: 2.2, Speed: 1},
		{Start: 3, End: 9, Speed: 3},
		{Start: 9.8, End: 12, Speed: 1.2},
	}
	got := RenderableSegments(in, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %+v", got)
	}
	if got[0].Start != 0 || got[0].Speed != pacing.MinSpeed {
		t.Errorf("first segment not clamped: %+v", got[0])
	}
	if got[1].Speed != pacing.MaxSpeed {
		t.Errorf("speed not capped: %+v", got[1])
	}
}

func TestRenderableSegments_Fallback(t *testing.T) {
	got := RenderableSegments(nil, 45)
	if len(got) != 1 || got[0].Start != 0 || got[0].End != FallbackSeconds {
		t.Errorf("expected 20s fallback, got %+v", got)
	}
	short := RenderableSegments([]pacing.Segment{{Start: 0, End: 0.1}}, 6)
	if len(short) != 1 || short[0].End != 6 {
		t.Errorf("fallback should stop at the source end, got %+v", short)
	}
	if len(RenderableSegments(nil, 0)) != 0 {
		t.Error("unknown duration should not invent a fallback")
	}
}

func TestSegmentGraph(t *testing.T) {
	g, err := SegmentGraph(EditOptions{
		Input:    "in.mp4",
		Output:   "out.mp4",
		HasAudio: true,
		Width:    1280,
		Height:   720,
		Segments: []pacing.Segment{
			{Start: 0, End: 2.5, Speed: 1},
			{Start: 4, End: 6, Speed: 1.5, Zoom: 1.08},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"[0:v]trim=start=0:end=2.5,setpts=PTS-STARTPTS,scale=1280:720,setsar=1[v0]",
		"[0:a]atrim=start=0:end=2.5,asetpts=PTS-STARTPTS[a0]",
		"[0:v]trim=start=4:end=6,setpts=(PTS-STARTPTS)/1.5,scale=1280:720,setsar=1,crop=iw/1.08:ih/1.08,scale=1280:720,setsar=1[v1]",
		"[0:a]atrim=start=4:end=6,asetpts=PTS-STARTPTS,atempo=1.5[a1]",
		"[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]",
	}, ";")
	if g.Filter != want {
		t.Errorf("graph mismatch\ngot  %s\nwant %s", g.Filter, want)
	}
	if g.VideoOut != "[outv]" || g.AudioOut != "[outa]" {
		t.Errorf("unexpected outputs %s %s", g.VideoOut, g.AudioOut)
	}
}

func TestSegmentGraph_VerticalSilent(t *testing.T) {
	g, err := SegmentGraph(EditOptions{
		Vertical: true,
		Segments: []pacing.Segment{{Start: 1, End: 3, Speed: 1, Emphasize: true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(g.Filter, "[0:a]") || g.AudioOut != "" {
		t.Errorf("silent source should not touch audio: %s", g.Filter)
	}
	if !strings.Contains(g.Filter, "crop=1080:1920") || !strings.HasSuffix(g.Filter, "concat=n=1:v=1:a=0[outv]") {
		t.Errorf("unexpected vertical graph: %s", g.Filter)
	}
	if !strings.Contains(g.Filter, "eq=saturation") {
		t.Error("emphasized segment lost its styling")
	}
}

func TestSegmentGraph_ConcatInputsShareFrameSize(t *testing.T) {
	segments := []pacing.Segment{
		{Start: 0, End: 2, Speed: 1, Zoom: 1.06, Emphasize: true},
		{Start: 2, End: 5, Speed: 1.2},
		{Start: 5, End: 8, Speed: 1, Zoom: 1.08},
		{Start: 8, End: 10, Speed: 1, Emphasize: true},
	}
	tests := []struct {
		name string
		opts EditOptions
		size string
	}{
		{"vertical", EditOptions{Vertical: true}, "1080:1920"},
		{"source size", EditOptions{Width: 321, Height: 241}, "320:240"},
		{"unknown size", EditOptions{}, "1920:1080"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Segments = segments
			g, err := SegmentGraph(tc.opts)
			if err != nil {
				t.Fatal(err)
			}

			videoChains := 0
			for _, chain := range strings.Split(g.Filter, ";") {
				if !strings.HasPrefix(chain, "[0:v]") {
					continue
				}
				videoChains++
				body := chain[len("[0:v]"):strings.LastIndex(chain, "[")]
				filters := strings.Split(body, ",")

				last := -1
				for i, f := range filters {
					if strings.HasPrefix(f, "scale=") || strings.HasPrefix(f, "crop=") {
						last = i
					}
				}
				if last < 0 {
					t.Fatalf("chain never sets a size: %s", chain)
				}
				if f := filters[last]; f != "scale="+tc.size && f != "crop="+tc.size {
					t.Errorf("chain ends at %s, want %s: %s", f, tc.size, chain)
				}
				if last+1 >= len(filters) || filters[last+1] != "setsar=1" {
					t.Errorf("chain does not reset the aspect ratio after sizing: %s", chain)
				}
			}
			if videoChains != len(segments) {
				t.Errorf("got %d video chains, want %d", videoChains, len(segments))
			}
		})
	}
}

func TestSegmentGraph_NoSegments(t *testing.T) {
	_, err := SegmentGraph(EditOptions{Segments: []pacing.Segment{{Start: 1, End: 1.2}}})
	if !errors.Is(err, ErrNoSegments) {
		t.Errorf("expected ErrNoSegments, got %v", err)
	}
}

func TestEditArgs(t *testing.T) {
	opts := EditOptions{
		Input:    "in.mp4",
		Output:   "out.mp4",
		HasAudio: true,
		Vertical: true,
		Segments: []pacing.Segment{{Start: 0, End: 5, Speed: 1}},
	}
	args, _, err := EditArgs(opts, "")
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{"-b:v 8M", "-preset medium", "-map [outv]", "-map [outa]", "-b:a 128k", "-pix_fmt yuv420p", "-movflags +faststart"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output should be last, got %s", args[len(args)-1])
	}

	opts.Vertical = false
	opts.HasAudio = false
	args, _, err = EditArgs(opts, "fast")
	if err != nil {
		t.Fatal(err)
	}
	joined = strings.Join(args, " ")
	if !strings.Contains(joined, "-b:v 10M") || strings.Contains(joined, "-c:a") || !strings.Contains(joined, "-preset fast") {
		t.Errorf("unexpected landscape args: %s", joined)
	}
}

func TestEditArgsValidation(t *testing.T) {
	seg := []pacing.Segment{{Start: 0, End: 5, Speed: 1}}
	tests := []struct {
		name string
		opts EditOptions
	}{
		{"no input", EditOptions{Output: "o.mp4", Segments: seg}},
		{"no output", EditOptions{Input: "i.mp4", Segments: seg}},
		{"overwrite", EditOptions{Input: "a.mp4", Output: "a.mp4", Segments: seg}},
		{"missing subtitles", EditOptions{Input: "i.mp4", Output: "o.mp4", Segments: seg, Subtitles: filepath.Join(t.TempDir(), "none.srt")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := EditArgs(tc.opts, ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"format": {"duration": "61.500000", "bit_rate": "2500000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac", "bit_rate": "128000"}
		]
	}`)
	info, err := parseProbe(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Seconds() != 61.5 || info.Width != 1920 || !info.HasAudio || info.AudioBitrate != 128000 {
		t.Errorf("unexpected probe info %+v", info)
	}
	if info.FPS < 29.96 || info.FPS > 29.98 {
		t.Errorf("unexpected fps %v", info.FPS)
	}

	if _, err := parseProbe([]byte(`{"streams": [{"codec_type": "audio"}]}`)); err == nil {
		t.Error("expected error for audio-only input")
	}
}

func TestStreamOutput(t *testing.T) {
	input := strings.Join([]string{
		"frame=120",
		"fps=30.00",
		"bitrate=2048.0kbits/s",
		"total_size=1024",
		"out_time=00:00:04.000000",
		"speed=2.01x",
		"progress=continue",
		"Error while filtering",
		"progress=end",
	}, "\n")

	var progress []Progress
	var logs []string
	streamOutput(strings.NewReader(input), func(p *Progress) { progress = append(progress, *p) }, func(l string) { logs = append(logs, l) })

	if len(progress) != 1 {
		t.Fatalf("expected 1 progress block, got %d", len(progress))
	}
	p := progress[0]
	if p.Frame != 120 || p.FPS != 30 || p.Time != "00:00:04.000000" || p.Speed != "2.01x" {
		t.Errorf("unexpected progress %+v", p)
	}
	if len(logs) != 1 || logs[0] != "Error while filtering" {
		t.Errorf("expected only the error line logged, got %v", logs)
	}
}

func TestEscapeSubtitlePath(t *testing.T) {
	got := escapeSubtitlePath("/tmp/it's:here.srt")
	if got != `/tmp/it\'s\:here.srt` {
		t.Errorf("unexpected escape %s", got)
	}
}

func TestExecutorCreation(t *testing.T) {
	skipIfNoFFmpeg(t)

	e, err := New(zerolog.New(os.Stderr), "", 2, "")
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	if e.ffmpegPath == "" || e.ffprobePath == "" {
		t.Error("binary paths are empty")
	}
	if e.preset != DefaultPreset {
		t.Errorf("expected default preset, got %s", e.preset)
	}
}

func TestMissingBinary(t *testing.T) {
	_, err := New(zerolog.Nop(), "vibecut-no-such-ffmpeg", 0, "")
	if !IsMissingBinary(err) {
		t.Errorf("expected missing binary error, got %v", err)
	}
}

func TestRenderEdit(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	gen := exec.Command("ffmpeg", "-y", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size=320x240:rate=30:duration=6",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=6",
		"-shortest", "-c:v", "libx264", "-c:a", "aac", src)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot generate source: %v: %s", err, out)
	}

	e, err := New(zerolog.Nop(), "", 1, "ultrafast")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	info, err := e.ProbeVideo(ctx, src)
	if err != nil {
		t.Fatalf("ProbeVideo: %v", err)
	}

	out := filepath.Join(dir, "renders", "edit.mp4")
	_, err = e.RenderEdit(ctx, EditOptions{
		Input:          src,
		Output:         out,
		SourceDuration: info.Seconds(),
		HasAudio:       info.HasAudio,
		Width:          info.Width,
		Height:         info.Height,
		Segments: []pacing.Segment{
			{Start: 4, End: 5.5, Speed: 1},
			{Start: 0, End: 2, Speed: 1.5, Zoom: 1.08},
		},
	})
	if err != nil {
		t.Fatalf("RenderEdit: %v", err)
	}

	rendered, err := e.ProbeVideo(ctx, out)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	// 1.5s + 2s at 1.5x
	if d := rendered.Seconds(); d < 2.5 || d > 3.4 {
		t.Errorf("unexpected output duration %.2f", d)
	}
}
