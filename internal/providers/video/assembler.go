// Package video provides the final assembly capability: scenes plus narration
// in, a rendered mp4 out.
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ezedinff/AAIDC/internal/domain"
)

// Result describes the assembled artifact.
type Result struct {
	Path     string
	Duration float64
}

// Assembler renders the final video from scenes and narration references.
type Assembler interface {
	Assemble(ctx context.Context, videoID string, scenes []domain.Scene, audioFiles []string) (Result, error)
}

// FFmpegAssembler renders one caption slide per scene with ffmpeg, muxes the
// scene's narration over it, and concatenates the slides into the output file.
type FFmpegAssembler struct {
	outputDir  string
	tempDir    string
	resolution string
	logger     zerolog.Logger
}

// NewFFmpegAssembler builds an assembler writing into outputDir. resolution
// is WxH, e.g. "1280x720".
func NewFFmpegAssembler(outputDir, tempDir, resolution string, logger zerolog.Logger) *FFmpegAssembler {
	if resolution == "" {
		resolution = "1280x720"
	}
	return &FFmpegAssembler{outputDir: outputDir, tempDir: tempDir, resolution: resolution, logger: logger}
}

// Assemble renders the final mp4. Any ffmpeg failure is an agent failure; the
// orchestrator decides what to do with it.
func (a *FFmpegAssembler) Assemble(ctx context.Context, videoID string, scenes []domain.Scene, audioFiles []string) (Result, error) {
	if len(scenes) == 0 {
		return Result{}, fmt.Errorf("%w: no scenes for video assembly", domain.ErrValidation)
	}
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: ensure output dir: %v", domain.ErrStorage, err)
	}
	workDir := filepath.Join(a.tempDir, videoID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: ensure work dir: %v", domain.ErrStorage, err)
	}
	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	var total float64
	clips := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		clip := filepath.Join(workDir, fmt.Sprintf("scene_%d.mp4", i+1))
		audio := ""
		if i < len(audioFiles) {
			audio = audioFiles[i]
		}
		if err := a.renderScene(ctx, scene, audio, clip); err != nil {
			return Result{}, err
		}
		clips = append(clips, clip)
		total += scene.DurationSeconds
	}

	outPath := filepath.Join(a.outputDir, fmt.Sprintf("%s.mp4", videoID))
	if err := a.concat(ctx, clips, workDir, outPath); err != nil {
		return Result{}, err
	}
	a.logger.Info().Str("video_id", videoID).Str("path", outPath).Msg("video: assembled final artifact")
	return Result{Path: outPath, Duration: total}, nil
}

func (a *FFmpegAssembler) renderScene(ctx context.Context, scene domain.Scene, audioFile, outFile string) error {
	duration := scene.DurationSeconds
	if duration <= 0 {
		duration = 5
	}
	source := fmt.Sprintf("color=c=white:s=%s:d=%.2f", a.resolution, duration)
	drawtext := fmt.Sprintf("drawtext=text='%s':fontcolor=black:fontsize=48:x=(w-text_w)/2:y=(h-text_h)/2",
		escapeDrawtext(scene.CaptionText))

	args := []string{"-y", "-f", "lavfi", "-i", source}
	if audioFile != "" {
		if info, err := os.Stat(audioFile); err == nil && info.Size() > 0 {
			args = append(args, "-i", audioFile)
		}
	}
	args = append(args, "-vf", drawtext, "-t", fmt.Sprintf("%.2f", duration), "-shortest", outFile)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: render scene: %v: %s", domain.ErrAgentFailure, err, tail(out))
	}
	return nil
}

func (a *FFmpegAssembler) concat(ctx context.Context, clips []string, workDir, outFile string) error {
	var list strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&list, "file '%s'\n", clip)
	}
	listPath := filepath.Join(workDir, "clips.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return fmt.Errorf("%w: write concat list: %v", domain.ErrStorage, err)
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y", "-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", outFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: concat scenes: %v: %s", domain.ErrAgentFailure, err, tail(out))
	}
	return nil
}

func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`)
	return replacer.Replace(text)
}

func tail(out []byte) string {
	const max = 300
	s := strings.TrimSpace(string(out))
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}

// MockAssembler writes a placeholder artifact and reports the summed scene
// duration, letting the pipeline run without ffmpeg installed.
type MockAssembler struct {
	OutputDir string
}

func (m *MockAssembler) Assemble(ctx context.Context, videoID string, scenes []domain.Scene, audioFiles []string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(scenes) == 0 {
		return Result{}, fmt.Errorf("%w: no scenes for video assembly", domain.ErrValidation)
	}
	if err := os.MkdirAll(m.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("%w: ensure output dir: %v", domain.ErrStorage, err)
	}
	outPath := filepath.Join(m.OutputDir, fmt.Sprintf("%s.mp4", videoID))
	if err := os.WriteFile(outPath, []byte("mock video artifact"), 0o644); err != nil {
		return Result{}, fmt.Errorf("%w: write artifact: %v", domain.ErrStorage, err)
	}
	var total float64
	for _, s := range scenes {
		total += s.DurationSeconds
	}
	return Result{Path: outPath, Duration: total}, nil
}
