package encoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// HWAccelType represents a hardware acceleration type
type HWAccelType string

const (
	HWAccelNone         HWAccelType = "none"         // Software encoding (libx264)
	HWAccelAuto         HWAccelType = "auto"         // Auto-detect best available
	HWAccelNVENC        HWAccelType = "nvenc"        // NVIDIA NVENC
	HWAccelQSV          HWAccelType = "qsv"          // Intel Quick Sync Video
	HWAccelVAAPI        HWAccelType = "vaapi"        // VA-API (AMD, Intel, older hardware)
	HWAccelVulkan       HWAccelType = "vulkan"       // Vulkan Video
	HWAccelVideoToolbox HWAccelType = "videotoolbox" // Apple VideoToolbox (macOS)
)

// ParseHWAccel validates an encoder name from flags or config
func ParseHWAccel(s string) (HWAccelType, error) {
	t := HWAccelType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return HWAccelNone, nil
	case HWAccelNone, HWAccelAuto, HWAccelNVENC, HWAccelQSV, HWAccelVAAPI, HWAccelVulkan, HWAccelVideoToolbox:
		return t, nil
	}
	return "", fmt.Errorf("unknown encoder %q (want none, auto, nvenc, qsv, vaapi, vulkan or videotoolbox)", s)
}

// HWEncoder represents a detected hardware encoder
type HWEncoder struct {
	Name        string      // Encoder name (e.g., "h264_nvenc")
	Type        HWAccelType // Hardware acceleration type
	Available   bool        // Whether ffmpeg could open it on this machine
	Description string      // Human-readable description
}

// encoderSpec defines a hardware encoder configuration for priority lists
type encoderSpec struct {
	name      string
	accelType HWAccelType
	desc      string
}

// linuxEncoderPriority defines the encoder preference order for Linux
// Priority: nvenc > qsv > vaapi > vulkan > software
var linuxEncoderPriority = []encoderSpec{
	{"h264_nvenc", HWAccelNVENC, "NVIDIA NVENC"},
	{"h264_qsv", HWAccelQSV, "Intel Quick Sync Video"},
	{"h264_vaapi", HWAccelVAAPI, "VA-API"},
	{"h264_vulkan", HWAccelVulkan, "Vulkan Video"},
}

// macOSEncoderPriority defines the encoder preference order for macOS
var macOSEncoderPriority = []encoderSpec{
	{"h264_videotoolbox", HWAccelVideoToolbox, "Apple VideoToolbox"},
}

// vaapiDevice is the render node used for VA-API encoding
func vaapiDevice() string {
	if dev := os.Getenv("CANVASFIRE_VAAPI_DEVICE"); dev != "" {
		return dev
	}
	return "/dev/dri/renderD128"
}

// hwInputArgs returns arguments that must precede the inputs to initialise
// a hardware device
func hwInputArgs(enc *HWEncoder) []string {
	if enc == nil {
		return nil
	}
	switch enc.Type {
	case HWAccelVAAPI:
		return []string{"-vaapi_device", vaapiDevice()}
	case HWAccelVulkan:
		return []string{"-init_hw_device", "vulkan=vk", "-filter_hw_device", "vk"}
	}
	return nil
}

// videoCodecArgs returns the output-side video codec arguments. enc nil
// selects libx264.
func videoCodecArgs(enc *HWEncoder, preset string, crf int) []string {
	q := strconv.Itoa(crf)

	if enc == nil {
		return []string{"-c:v", "libx264", "-preset", preset, "-crf", q, "-pix_fmt", "yuv420p"}
	}

	switch enc.Type {
	case HWAccelNVENC:
		return []string{"-c:v", enc.Name, "-preset", "p5", "-rc", "vbr", "-cq", q, "-pix_fmt", "yuv420p"}
	case HWAccelQSV:
		return []string{"-c:v", enc.Name, "-global_quality", q, "-pix_fmt", "nv12"}
	case HWAccelVAAPI, HWAccelVulkan:
		// Frames are uploaded to the device before encoding
		return []string{"-vf", "format=nv12,hwupload", "-c:v", enc.Name, "-qp", q}
	case HWAccelVideoToolbox:
		return []string{"-c:v", enc.Name, "-q:v", "65", "-pix_fmt", "yuv420p"}
	}
	return []string{"-c:v", enc.Name, "-pix_fmt", "yuv420p"}
}

// testEncoderAvailable encodes a single synthetic frame with the encoder.
// A device can exist yet lack the encoder (e.g. an iGPU with Vulkan but no
// Vulkan Video), so opening the encoder is the only reliable test.
func testEncoderAvailable(ctx context.Context, binary string, enc *HWEncoder) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "quiet"}
	args = append(args, hwInputArgs(enc)...)
	args = append(args, "-f", "lavfi", "-i", "color=black:s=256x256:d=0.1", "-frames:v", "1")
	args = append(args, videoCodecArgs(enc, "medium", 23)...)
	args = append(args, "-f", "null", "-")

	cmd := exec.CommandContext(ctx, binary, args...)
	// libva logs separately from ffmpeg
	cmd.Env = append(os.Environ(), "LIBVA_MESSAGING_LEVEL=0")

	return cmd.Run() == nil
}

// DetectHWEncoders probes for available hardware encoders
// Returns a list of detected encoders in priority order
func DetectHWEncoders(ctx context.Context, binary string) []HWEncoder {
	var priority []encoderSpec
	switch runtime.GOOS {
	case "darwin":
		priority = macOSEncoderPriority
	default: // Linux and others
		priority = linuxEncoderPriority
	}

	encoders := make([]HWEncoder, 0, len(priority))
	for _, spec := range priority {
		enc := HWEncoder{
			Name:        spec.name,
			Type:        spec.accelType,
			Description: spec.desc,
		}
		enc.Available = testEncoderAvailable(ctx, binary, &enc)
		encoders = append(encoders, enc)
	}

	return encoders
}

// SelectBestEncoder returns the best available encoder based on priority
// If requestedType is HWAccelAuto, it selects the first available hardware encoder
// If requestedType is HWAccelNone, it returns nil (use software)
// Otherwise, it attempts to use the requested type if available
func SelectBestEncoder(ctx context.Context, binary string, requestedType HWAccelType) *HWEncoder {
	if requestedType == HWAccelNone || requestedType == "" {
		return nil
	}

	encoders := DetectHWEncoders(ctx, binary)

	for i := range encoders {
		if requestedType != HWAccelAuto && encoders[i].Type != requestedType {
			continue
		}
		if encoders[i].Available {
			return &encoders[i]
		}
		if requestedType != HWAccelAuto {
			return nil
		}
	}

	return nil
}

// GetEncoderStatus returns a human-readable status of all hardware encoders
func GetEncoderStatus(ctx context.Context, binary string) string {
	var sb strings.Builder
	sb.WriteString("Hardware Encoder Status:\n")

	for _, enc := range DetectHWEncoders(ctx, binary) {
		status := "not available"
		if enc.Available {
			status = "available"
		}
		fmt.Fprintf(&sb, "  %s (%s): %s\n", enc.Description, enc.Name, status)
	}

	return sb.String()
}
