package vo

import (
	"fmt"
	"strconv"
	"strings"
)

// RenditionSpec 单个清晰度档位：名称、目标分辨率、目标码率。
// 档位顺序决定master playlist中的排列顺序。
type RenditionSpec struct {
	Name       string `json:"name"`
	Resolution string `json:"resolution"` // "640x360" 或 "360p"
	Bitrate    string `json:"bitrate"`    // "500k"、"2000k"
}

// NewRenditionSpec 创建并校验档位配置
func NewRenditionSpec(name, resolution, bitrate string) (RenditionSpec, error) {
	spec := RenditionSpec{Name: name, Resolution: resolution, Bitrate: bitrate}
	if err := spec.Validate(); err != nil {
		return RenditionSpec{}, err
	}
	return spec, nil
}

// Validate 校验档位配置
func (r RenditionSpec) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rendition name is required")
	}
	if strings.ContainsAny(r.Name, "/\\ ") {
		return fmt.Errorf("rendition name %q must not contain path separators or spaces", r.Name)
	}
	if _, _, err := ParseResolution(r.Resolution); err != nil {
		return err
	}
	if _, err := ParseBitrateBps(r.Bitrate); err != nil {
		return err
	}
	return nil
}

// Width 目标宽度
func (r RenditionSpec) Width() int {
	w, _, err := ParseResolution(r.Resolution)
	if err != nil {
		return 0
	}
	return w
}

// Height 目标高度
func (r RenditionSpec) Height() int {
	_, h, err := ParseResolution(r.Resolution)
	if err != nil {
		return 0
	}
	return h
}

// BitrateBps 目标码率（bps），解析失败返回0。
func (r RenditionSpec) BitrateBps() int {
	bps, err := ParseBitrateBps(r.Bitrate)
	if err != nil {
		return 0
	}
	return bps
}

// BufSize 编码器缓冲区大小，固定为码率的两倍。
func (r RenditionSpec) BufSize() string {
	bps, err := ParseBitrateBps(r.Bitrate)
	if err != nil {
		return r.Bitrate
	}
	return fmt.Sprintf("%dk", bps*2/1000)
}

// ParseBitrateBps 将 "2000k"/"2M"/"2000kbps"/"2mbps" 等解析为 bps
func ParseBitrateBps(bitrate string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(bitrate))
	if s == "" {
		return 0, fmt.Errorf("empty bitrate")
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(s, "kbps"):
		factor = 1000
		s = strings.TrimSuffix(s, "kbps")
	case strings.HasSuffix(s, "mbps"):
		factor = 1000 * 1000
		s = strings.TrimSuffix(s, "mbps")
	case strings.HasSuffix(s, "k"):
		factor = 1000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		factor = 1000 * 1000
		s = strings.TrimSuffix(s, "m")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid bitrate: %s", bitrate)
	}
	return int(v * factor), nil
}

// ParseResolution 解析 "640x360" 形式，或 "720p"/"1080" 形式（按16:9补全宽度）。
func ParseResolution(resolution string) (width, height int, err error) {
	s := strings.TrimSpace(strings.ToLower(resolution))
	if s == "" {
		return 0, 0, fmt.Errorf("empty resolution")
	}

	if strings.Contains(s, "x") {
		parts := strings.SplitN(s, "x", 2)
		w, werr := strconv.Atoi(parts[0])
		h, herr := strconv.Atoi(parts[1])
		if werr != nil || herr != nil || w <= 0 || h <= 0 {
			return 0, 0, fmt.Errorf("invalid resolution: %s", resolution)
		}
		return w, h, nil
	}

	switch s {
	case "4k":
		s = "2160"
	case "2k":
		s = "1440"
	default:
		s = strings.TrimSuffix(s, "p")
	}
	h, aerr := strconv.Atoi(s)
	if aerr != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution: %s", resolution)
	}
	return h * 16 / 9, h, nil
}
