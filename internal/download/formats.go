package download

import "errors"

// ErrNoSuitableFormat is returned when probing finds no usable video or audio
// stream to merge.
var ErrNoSuitableFormat = errors.New("no suitable format")

// Format is one stream variant from a yt-dlp metadata probe. Codec fields use
// yt-dlp's convention: "none" marks an absent track.
type Format struct {
	ID     string  `json:"format_id"`
	Ext    string  `json:"ext"`
	VCodec string  `json:"vcodec"`
	ACodec string  `json:"acodec"`
	TBR    float64 `json:"tbr"`
	ABR    float64 `json:"abr"`
}

func (f Format) hasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

func (f Format) audioOnly() bool {
	return !f.hasVideo() && f.ACodec != "" && f.ACodec != "none"
}

// audioRate prefers the dedicated audio bitrate and falls back to the total
// bitrate when yt-dlp omits it.
func (f Format) audioRate() float64 {
	if f.ABR > 0 {
		return f.ABR
	}
	return f.TBR
}

// Selection names the two stream ids merged into one download invocation.
type Selection struct {
	VideoID string
	AudioID string
}

// SelectFormats picks the highest-bitrate video-capable stream and the
// highest-audio-bitrate audio-only stream, skipping excluded containers.
// Either side coming up empty fails the whole selection.
func SelectFormats(formats []Format, excludeExts ...string) (Selection, error) {
	excluded := make(map[string]bool, len(excludeExts))
	for _, ext := range excludeExts {
		excluded[ext] = true
	}

	var bestVideo, bestAudio *Format
	for i := range formats {
		f := &formats[i]
		if excluded[f.Ext] {
			continue
		}
		switch {
		case f.hasVideo():
			if bestVideo == nil || f.TBR > bestVideo.TBR {
				bestVideo = f
			}
		case f.audioOnly():
			if bestAudio == nil || f.audioRate() > bestAudio.audioRate() {
				bestAudio = f
			}
		}
	}

	if bestVideo == nil || bestAudio == nil {
		return Selection{}, ErrNoSuitableFormat
	}
	return Selection{VideoID: bestVideo.ID, AudioID: bestAudio.ID}, nil
}
