package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNoPlayableStream classifies probes that decoded but found no video to loop.
	ErrNoPlayableStream = errors.New("ffprobe returned no playable video stream")
)

// StreamInfo is the subset of ffprobe output that decides whether an avatar
// loop can start.
type StreamInfo struct {
	Container string
	Codec     string
	Width     int
	Height    int
	Duration  float64
	FPS       float64
	HasAudio  bool
}

// Resolution formats width x height for logs.
func (s *StreamInfo) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Prober runs ffprobe against a locator (local path or URL).
type Prober struct {
	BinaryPath string
}

// NewProber returns a prober using binaryPath, or "ffprobe" from PATH when empty.
func NewProber(binaryPath string) *Prober {
	if strings.TrimSpace(binaryPath) == "" {
		binaryPath = "ffprobe"
	}
	return &Prober{BinaryPath: binaryPath}
}

// Probe executes ffprobe and returns stream info. Only the headers and the
// first packets are read, which is what a player needs before it can start.
func (p *Prober) Probe(ctx context.Context, locator string) (*StreamInfo, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		locator,
	}

	// #nosec G204 - binary comes from operator config; locator is a catalog entry
	cmd := exec.CommandContext(ctx, p.BinaryPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	return decodeProbe(out, err, stderr.String(), locator)
}

// decodeProbe validates ffprobe output. A non-zero exit is tolerated when the
// JSON still describes a playable video stream (partial files, warnings).
func decodeProbe(out []byte, execErr error, stderr, locator string) (*StreamInfo, error) {
	var data probeData
	jsonErr := json.Unmarshal(out, &data)

	if jsonErr != nil || data.Format.FormatName == "" {
		if execErr != nil {
			return nil, fmt.Errorf("ffprobe failed: %w (stderr: %s)", execErr, truncate(stderr))
		}
		if jsonErr != nil {
			return nil, fmt.Errorf("json decode: %w", jsonErr)
		}
		return nil, fmt.Errorf("ffprobe returned empty format for %s", locator)
	}

	info := &StreamInfo{}
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if info.Codec != "" || s.CodecName == "" {
				continue
			}
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			if s.Duration != "" {
				if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
					info.Duration = d
				}
			}
			info.FPS = parseRate(s.AvgFrameRate)
		case "audio":
			info.HasAudio = true
		}
	}

	if info.Duration == 0 && data.Format.Duration != "" {
		if d, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}

	// "matroska,webm" -> "webm", "mov,mp4,m4a,3gp,3g2,mj2" -> "mp4"
	info.Container = canonicalContainer(data.Format.FormatName)

	if info.Codec == "" || info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPlayableStream, locator)
	}

	if execErr != nil {
		log.Warn().Err(execErr).Str("locator", locator).Str("stderr", truncate(stderr)).Msg("ffprobe non-zero exit but JSON accepted")
	}
	return info, nil
}

func canonicalContainer(formatName string) string {
	parts := strings.Split(formatName, ",")
	canonical := ""
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "webm" || t == "mp4" {
			return t
		}
		if canonical == "" && t != "" {
			canonical = t
		}
	}
	return canonical
}

func parseRate(r string) float64 {
	if r == "" || r == "0/0" {
		return 0
	}
	parts := strings.Split(r, "/")
	if len(parts) != 2 {
		return 0
	}
	num, _ := strconv.ParseFloat(parts[0], 64)
	den, _ := strconv.ParseFloat(parts[1], 64)
	if den <= 0 {
		return 0
	}
	return num / den
}

// truncate keeps stderr dumps from exploding log lines.
func truncate(s string) string {
	if len(s) > 4096 {
		return s[:4096] + "..."
	}
	return s
}

type probeData struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Duration     string `json:"duration,omitempty"`
		Width        int    `json:"width,omitempty"`
		Height       int    `json:"height,omitempty"`
		AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}
