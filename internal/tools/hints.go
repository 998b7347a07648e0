package tools

import "runtime"

func installHints(tool string) []string {
	switch tool {
	case "ffmpeg", "ffprobe":
	case "uvx":
		return []string{
			"Install uv (which provides uvx): curl -LsSf https://astral.sh/uv/install.sh | sh",
			"Without uvx captions fall back to a single placeholder",
		}
	default:
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{
			"Install ffmpeg via Homebrew: brew install ffmpeg",
		}
	case "linux":
		return []string{
			"Install ffmpeg with your distro package manager, e.g. sudo apt install ffmpeg",
		}
	case "windows":
		return []string{
			"Install ffmpeg via winget: winget install Gyan.FFmpeg",
			"or via Chocolatey: choco install ffmpeg",
		}
	default:
		return []string{"Install ffmpeg using your platform's package manager"}
	}
}
