package mkv

import (
	"strings"

	"symphonia/internal/language"
	"symphonia/internal/media"
)

type trackEntry struct {
	number          uint64
	kind            uint64
	codecID         string
	codecPrivate    []byte
	language        string
	bcp47           string
	enabled         bool
	isDefault       bool
	forced          bool
	defaultDuration uint64 // ns
	codecDelay      uint64 // ns
	width, height   uint64
	sampleRate      float64
	channels        uint64
	bitDepth        uint64
}

func (er *ebmlReader) parseTrackEntry(e element) (trackEntry, error) {
	t := trackEntry{enabled: true, isDefault: true, language: "eng"}
	err := er.children(e, func(c element) error {
		var err error
		switch c.id {
		case idTrackNumber:
			t.number, err = er.readUint(c)
		case idTrackType:
			t.kind, err = er.readUint(c)
		case idCodecID:
			t.codecID, err = er.readString(c)
		case idCodecPrivate:
			t.codecPrivate, err = er.payload(c)
		case idLanguage:
			t.language, err = er.readString(c)
		case idLanguageBCP47:
			t.bcp47, err = er.readString(c)
		case idFlagEnabled:
			t.enabled, err = er.readFlag(c)
		case idFlagDefault:
			t.isDefault, err = er.readFlag(c)
		case idFlagForced:
			t.forced, err = er.readFlag(c)
		case idDefaultDur:
			t.defaultDuration, err = er.readUint(c)
		case idCodecDelay:
			t.codecDelay, err = er.readUint(c)
		case idVideo:
			err = er.children(c, func(v element) error {
				var err error
				switch v.id {
				case idPixelWidth:
					t.width, err = er.readUint(v)
				case idPixelHeight:
					t.height, err = er.readUint(v)
				}
				return err
			})
		case idAudio:
			t.sampleRate = 8000
			t.channels = 1
			err = er.children(c, func(a element) error {
				var err error
				switch a.id {
				case idSamplingFreq:
					t.sampleRate, err = er.readFloat(a)
				case idChannels:
					t.channels, err = er.readUint(a)
				case idBitDepth:
					t.bitDepth, err = er.readUint(a)
				}
				return err
			})
		}
		return err
	})
	return t, err
}

func (er *ebmlReader) readFlag(e element) (bool, error) {
	v, err := er.readUint(e)
	return v != 0, err
}

// track converts the entry to the shared track model. scale is the segment
// TimestampScale in nanoseconds per tick.
func (t trackEntry) track(scale uint64) media.Track {
	lang := t.bcp47
	if lang == "" {
		lang = t.language
	}
	out := media.Track{
		ID:       uint32(t.number),
		Type:     trackType(t.kind),
		Codec:    codecName(t.codecID),
		Language: language.Normalize(lang),
		TimeBase: timeBase(scale),
		Flags:    media.TrackFlags{Default: t.isDefault, Forced: t.forced, Enabled: t.enabled},
		Width:    uint16(t.width),
		Height:   uint16(t.height),
	}
	if t.kind == 2 {
		out.SampleRate = uint32(t.sampleRate)
		out.Channels = uint16(t.channels)
		out.BitsPerSample = uint16(t.bitDepth)
	}
	if t.codecDelay > 0 && scale > 0 {
		out.Delay = uint32(t.codecDelay / scale)
	}
	t.describeCodec(&out)
	return out
}

// Video codec IDs whose CodecPrivate is a decoder configuration record.
var videoConfigIDs = map[string]string{
	"V_MPEG4/ISO/AVC":  media.ExtraDataAVCConfig,
	"V_MPEGH/ISO/HEVC": media.ExtraDataHEVCConfig,
	"V_AV1":            media.ExtraDataAV1Config,
}

// aacProfiles covers the legacy A_AAC codec IDs that name the profile
// instead of carrying an AudioSpecificConfig.
var aacProfiles = map[string]string{
	"A_AAC/MPEG2/MAIN":   "MAIN",
	"A_AAC/MPEG2/LC":     "LC",
	"A_AAC/MPEG2/LC/SBR": "HE",
	"A_AAC/MPEG2/SSR":    "SSR",
	"A_AAC/MPEG4/MAIN":   "MAIN",
	"A_AAC/MPEG4/LC":     "LC",
	"A_AAC/MPEG4/LC/SBR": "HE",
	"A_AAC/MPEG4/SSR":    "SSR",
	"A_AAC/MPEG4/LTP":    "LTP",
}

// describeCodec attaches CodecPrivate and the profile and level it implies.
// Video CodecPrivate that is not a known configuration record is dropped.
func (t trackEntry) describeCodec(out *media.Track) {
	if len(t.codecPrivate) == 0 {
		if profile, ok := aacProfiles[t.codecID]; ok {
			out.Profile = profile
		}
		return
	}
	if t.kind != 1 {
		out.ExtraData = t.codecPrivate
		if out.Codec == "aac" {
			if aot, ok := media.AudioObjectType(t.codecPrivate); ok {
				out.Profile = media.AACProfile(aot)
			}
		}
		return
	}
	id, ok := videoConfigIDs[t.codecID]
	if !ok {
		return
	}
	out.VideoExtraData = []media.ExtraData{{ID: id, Data: t.codecPrivate}}
	var err error
	switch id {
	case media.ExtraDataAVCConfig:
		out.Profile, out.Level, err = media.ParseAVCConfig(t.codecPrivate)
	case media.ExtraDataHEVCConfig:
		out.Profile, out.Level, err = media.ParseHEVCConfig(t.codecPrivate)
	}
	if err != nil {
		out.Profile, out.Level = "", 0
	}
}

func trackType(kind uint64) media.TrackType {
	switch kind {
	case 1:
		return media.TrackVideo
	case 2:
		return media.TrackAudio
	case 17:
		return media.TrackSubtitle
	default:
		return media.TrackData
	}
}

var codecNames = map[string]string{
	"V_MPEG4/ISO/AVC":  "h264",
	"V_MPEGH/ISO/HEVC": "hevc",
	"V_VP8":            "vp8",
	"V_VP9":            "vp9",
	"V_AV1":            "av1",
	"V_MPEG2":          "mpeg2video",
	"V_THEORA":         "theora",
	"A_OPUS":           "opus",
	"A_VORBIS":         "vorbis",
	"A_FLAC":           "flac",
	"A_MPEG/L3":        "mp3",
	"A_MPEG/L2":        "mp2",
	"A_AC3":            "ac3",
	"A_EAC3":           "eac3",
	"A_DTS":            "dts",
	"A_TRUEHD":         "truehd",
	"A_ALAC":           "alac",
	"A_PCM/INT/LIT":    "pcm_le",
	"A_PCM/INT/BIG":    "pcm_be",
	"A_PCM/FLOAT/IEEE": "pcm_f32le",
	"S_TEXT/UTF8":      "subrip",
	"S_TEXT/ASS":       "ass",
	"S_TEXT/SSA":       "ssa",
	"S_TEXT/WEBVTT":    "webvtt",
	"S_HDMV/PGS":       "hdmv_pgs_subtitle",
	"S_VOBSUB":         "dvd_subtitle",
}

func codecName(id string) string {
	if name, ok := codecNames[id]; ok {
		return name
	}
	if strings.HasPrefix(id, "A_AAC") {
		return "aac"
	}
	if id == "" {
		return "unknown"
	}
	return strings.ToLower(id)
}

func timeBase(scale uint64) media.TimeBase {
	if scale == 0 {
		scale = defaultTimestampScale
	}
	numer, denom := scale, uint64(1_000_000_000)
	g := gcd(numer, denom)
	return media.TimeBase{Numer: uint32(numer / g), Denom: uint32(denom / g)}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
