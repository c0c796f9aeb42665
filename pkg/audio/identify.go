package audio

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Identify reads from r and returns the detected audio extension and
// Content-Type. Returns ("", "", err) if the format could not be identified.
func Identify(r io.ReadSeeker) (ext string, contentType string, err error) {
	_, fileType, err := tag.Identify(r)
	if err != nil || fileType == tag.UnknownFileType {
		return "", "", err
	}

	switch fileType {
	case tag.FLAC:
		return "flac", "audio/flac", nil
	case tag.MP3:
		return "mp3", "audio/mpeg", nil
	case tag.OGG:
		return "ogg", "audio/ogg", nil
	case tag.M4A, tag.M4B, tag.M4P, tag.ALAC:
		return "m4a", "audio/mp4", nil
	case tag.DSF:
		return "dsf", "audio/dsd", nil
	}
	return "", "", nil
}

// ContentTypeFromExtension returns the MIME type for common audio file
// extensions. Use as a fallback when Identify fails.
func ContentTypeFromExtension(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "flac":
		return "audio/flac"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	case "m4a", "m4b", "m4p", "mp4", "ts":
		return "audio/mp4"
	case "webm":
		return "audio/webm"
	default:
		return ""
	}
}
