package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vod-packager/ddd/domain/port"
	"vod-packager/ddd/domain/vo"
	"vod-packager/pkg/config"
	"vod-packager/pkg/logger"
)

// FFmpegEncoder implements port.SegmentEncoder by shelling out to ffmpeg.
// One invocation per rendition; codec, scale, bitrate caps and segment
// duration come from configuration, so identical inputs yield identical outputs.
type FFmpegEncoder struct {
	binary          string
	videoCodec      string
	audioCodec      string
	preset          string
	threads         int
	segmentDuration int
	timeout         time.Duration
}

// NewFFmpegEncoder 根据配置创建编码器
func NewFFmpegEncoder(ffcfg config.FFmpegConfig, segmentDuration int) *FFmpegEncoder {
	binary := strings.TrimSpace(ffcfg.BinaryPath)
	if binary == "" {
		binary = "ffmpeg"
	}
	if segmentDuration <= 0 {
		segmentDuration = 6
	}
	return &FFmpegEncoder{
		binary:          binary,
		videoCodec:      ffcfg.VideoCodec,
		audioCodec:      ffcfg.AudioCodec,
		preset:          ffcfg.Preset,
		threads:         ffcfg.Threads,
		segmentDuration: segmentDuration,
		timeout:         ffcfg.Timeout,
	}
}

// EncodeRendition runs ffmpeg to completion for one rendition. The process is
// always awaited; stderr is captured and attached to the returned error.
func (f *FFmpegEncoder) EncodeRendition(ctx context.Context, inputPath, workDir string, spec vo.RenditionSpec) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	outDir := filepath.Join(workDir, spec.Name)
	playlistPath := filepath.Join(outDir, "playlist.m3u8")
	segmentPattern := filepath.Join(outDir, "segment_%05d.ts")

	args := f.buildArgs(inputPath, playlistPath, segmentPattern, spec)
	logger.Debugf("ffmpeg command rendition=%s command=%s %s", spec.Name, f.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, f.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := tailLines(stderr.String(), 30)
		logger.Errorf("ffmpeg failed rendition=%s error=%v tail_stderr=%s", spec.Name, err, tail)
		return fmt.Errorf("ffmpeg exited abnormally: %w, stderr: %s", err, tail)
	}
	return nil
}

func (f *FFmpegEncoder) buildArgs(inputPath, playlistPath, segmentPattern string, spec vo.RenditionSpec) []string {
	args := make([]string, 0, 32)
	args = append(args,
		"-hide_banner",
		"-i", inputPath,
		"-c:v", f.videoCodec,
		"-preset", f.preset,
		"-c:a", f.audioCodec,
		"-b:a", "128k",
		"-vf", fmt.Sprintf("scale=%d:%d", spec.Width(), spec.Height()),
		"-b:v", spec.Bitrate,
		"-maxrate", spec.Bitrate,
		"-bufsize", spec.BufSize(),
		"-sc_threshold", "0",
		"-force_key_frames", fmt.Sprintf("expr:gte(t,n_forced*%d)", f.segmentDuration),
	)
	if f.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(f.threads))
	}
	args = append(args,
		"-hls_time", strconv.Itoa(f.segmentDuration),
		"-hls_playlist_type", "vod",
		"-hls_list_size", "0",
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", segmentPattern,
		"-f", "hls",
		"-y",
		playlistPath,
	)
	return args
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

var _ port.SegmentEncoder = (*FFmpegEncoder)(nil)
