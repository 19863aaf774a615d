package media

import (
	"fmt"
	"sort"
)

// TrackType is the kind of elementary stream a track carries.
type TrackType string

const (
	TrackVideo    TrackType = "video"
	TrackAudio    TrackType = "audio"
	TrackSubtitle TrackType = "subtitle"
	TrackData     TrackType = "data"
)

// TimeBase converts timestamps to seconds: seconds = ts * Numer / Denom.
type TimeBase struct {
	Numer uint32 `json:"numer"`
	Denom uint32 `json:"denom"`
}

// IsZero reports whether the time base is unknown.
func (tb TimeBase) IsZero() bool { return tb.Numer == 0 || tb.Denom == 0 }

func (tb TimeBase) String() string {
	if tb.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d", tb.Numer, tb.Denom)
}

// Seconds converts ts into seconds.
func (tb TimeBase) Seconds(ts uint64) float64 {
	if tb.IsZero() {
		return 0
	}
	return float64(ts) * float64(tb.Numer) / float64(tb.Denom)
}

// TrackFlags mirrors the disposition flags containers attach to tracks.
type TrackFlags struct {
	Default bool `json:"default,omitempty"`
	Forced  bool `json:"forced,omitempty"`
	Enabled bool `json:"enabled,omitempty"`
}

// Identifiers of video decoder configuration records.
const (
	ExtraDataAVCConfig         = "AVC_DECODER_CONFIG"
	ExtraDataHEVCConfig        = "HEVC_DECODER_CONFIG"
	ExtraDataVP9Config         = "VP9_DECODER_CONFIG"
	ExtraDataAV1Config         = "AV1_DECODER_CONFIG"
	ExtraDataDolbyVisionConfig = "DOLBY_VISION_CONFIG"
	ExtraDataDolbyVisionELHEVC = "DOLBY_VISION_EL_HEVC"
)

// ExtraData is one identified codec configuration record of a video track.
type ExtraData struct {
	ID   string `json:"id"`
	Data []byte `json:"data"`
}

// Track describes one elementary stream inside a container. Profile and
// Level use the names and numbers of the codec's own specification; zero
// values mean the container did not say.
type Track struct {
	ID        uint32     `json:"id"`
	Type      TrackType  `json:"type"`
	Codec     string     `json:"codec"`
	Profile   string     `json:"profile,omitempty"`
	Language  string     `json:"language,omitempty"`
	TimeBase  TimeBase   `json:"time_base"`
	NumFrames uint64     `json:"num_frames,omitempty"`
	StartTS   uint64     `json:"start_ts"`
	Delay     uint32     `json:"delay,omitempty"`
	Padding   uint32     `json:"padding,omitempty"`
	Flags     TrackFlags `json:"flags"`

	Level          uint32      `json:"level,omitempty"`
	Width          uint16      `json:"width,omitempty"`
	Height         uint16      `json:"height,omitempty"`
	VideoExtraData []ExtraData `json:"video_extra_data,omitempty"`

	SampleRate         uint32 `json:"sample_rate,omitempty"`
	SampleFormat       string `json:"sample_format,omitempty"`
	BitsPerSample      uint16 `json:"bits_per_sample,omitempty"`
	BitsPerCodedSample uint32 `json:"bits_per_coded_sample,omitempty"`
	Channels           uint16 `json:"channels,omitempty"`
	ChannelLayout      string `json:"channel_layout,omitempty"`
	MaxFramesPerPacket uint64 `json:"max_frames_per_packet,omitempty"`
	FramesPerBlock     uint64 `json:"frames_per_block,omitempty"`

	// ExtraData is the codec private data of audio and subtitle tracks.
	ExtraData []byte `json:"extra_data,omitempty"`
}

func trackTypeRank(t TrackType) int {
	switch t {
	case TrackVideo:
		return 0
	case TrackAudio:
		return 1
	case TrackSubtitle:
		return 2
	default:
		return 3
	}
}

// SortTracks returns a copy of tracks ordered video, audio, subtitle, data,
// keeping container order within each type.
func SortTracks(tracks []Track) []Track {
	out := append([]Track(nil), tracks...)
	sort.SliceStable(out, func(i, j int) bool {
		return trackTypeRank(out[i].Type) < trackTypeRank(out[j].Type)
	})
	return out
}

// FindTrack returns the track with the given id.
func FindTrack(tracks []Track, id uint32) (Track, bool) {
	for _, t := range tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}
