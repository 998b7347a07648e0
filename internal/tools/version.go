package tools

import (
	"regexp"
	"strconv"
	"strings"
)

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

var versionRegex = regexp.MustCompile(`([0-9]+)(?:\.([0-9]+))?(?:\.([0-9]+))?`)

// normalizeVersionLine extracts the version from a tool's first output line:
// "ffmpeg version 7.1.1-static ..." and "uvx 0.6.14 (...)" both reduce to
// their dotted number.
func normalizeVersionLine(name, line string) string {
	switch name {
	case "ffmpeg", "ffprobe":
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[1] == "version" {
			if match := versionRegex.FindString(fields[2]); match != "" {
				return match
			}
			return fields[2]
		}
	case "uvx":
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			return fields[1]
		}
	}
	if match := versionRegex.FindString(line); match != "" {
		return match
	}
	return line
}

func meetsMinimum(version, minimum string) bool {
	if minimum == "" {
		return true
	}
	if version == "" {
		return false
	}

	vParts := numericParts(version)
	mParts := numericParts(minimum)
	for len(vParts) < len(mParts) {
		vParts = append(vParts, 0)
	}
	for len(mParts) < len(vParts) {
		mParts = append(mParts, 0)
	}
	for i := 0; i < len(vParts); i++ {
		if vParts[i] > mParts[i] {
			return true
		}
		if vParts[i] < mParts[i] {
			return false
		}
	}
	return true
}

func numericParts(version string) []int {
	var parts []int
	current := strings.Builder{}
	for _, r := range version {
		if r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			val, _ := strconv.Atoi(current.String())
			parts = append(parts, val)
			current.Reset()
		}
	}
	if current.Len() > 0 {
		val, _ := strconv.Atoi(current.String())
		parts = append(parts, val)
	}
	return parts
}
