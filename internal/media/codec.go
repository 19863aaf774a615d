package media

import (
	"errors"
	"strings"
)

// H264Profile names an H.264 profile from profile_idc and the constraint
// flags byte that follows it in an AVC decoder configuration record.
func H264Profile(idc, constraints byte) string {
	set1 := constraints&0x40 != 0
	set3 := constraints&0x10 != 0
	set4 := constraints&0x08 != 0
	set5 := constraints&0x04 != 0
	switch idc {
	case 66:
		if set1 {
			return "CONSTRAINED_BASELINE"
		}
		return "BASELINE"
	case 77:
		return "MAIN"
	case 88:
		return "EXTENDED"
	case 100:
		switch {
		case set4 && set5:
			return "CONSTRAINED_HIGH"
		case set4:
			return "PROGRESSIVE_HIGH"
		}
		return "HIGH"
	case 110:
		if set3 {
			return "HIGH_10_INTRA"
		}
		return "HIGH_10"
	case 122:
		if set3 {
			return "HIGH_422_INTRA"
		}
		return "HIGH_422"
	case 144:
		return "HIGH_444"
	case 244:
		if set3 {
			return "HIGH_444_INTRA"
		}
		return "HIGH_444_PREDICTIVE"
	case 44:
		return "CAVLC_444"
	}
	return ""
}

// HEVCProfile names an HEVC general_profile_idc.
func HEVCProfile(idc byte) string {
	switch idc {
	case 1:
		return "MAIN"
	case 2:
		return "MAIN_10"
	case 3:
		return "MAIN_STILL_PICTURE"
	}
	return ""
}

// AACProfile names an MPEG-4 audio object type.
func AACProfile(aot uint8) string {
	switch aot {
	case 1:
		return "MAIN"
	case 2:
		return "LC"
	case 3:
		return "SSR"
	case 4:
		return "LTP"
	case 5:
		return "HE"
	case 29:
		return "HE_V2"
	case 42:
		return "USAC"
	}
	return ""
}

var errShortConfig = errors.New("decoder configuration record too short")

// ParseAVCConfig returns the profile and level of an
// AVCDecoderConfigurationRecord.
func ParseAVCConfig(record []byte) (profile string, level uint32, err error) {
	if len(record) < 4 {
		return "", 0, errShortConfig
	}
	return H264Profile(record[1], record[2]), uint32(record[3]), nil
}

// ParseHEVCConfig returns the profile and level of an
// HEVCDecoderConfigurationRecord.
func ParseHEVCConfig(record []byte) (profile string, level uint32, err error) {
	if len(record) < 13 {
		return "", 0, errShortConfig
	}
	return HEVCProfile(record[1] & 0x1f), uint32(record[12]), nil
}

// AudioObjectType reads the object type at the start of an MPEG-4
// AudioSpecificConfig, following the escape for types above 30.
func AudioObjectType(asc []byte) (uint8, bool) {
	if len(asc) == 0 {
		return 0, false
	}
	aot := asc[0] >> 3
	if aot != 31 {
		return aot, true
	}
	if len(asc) < 2 {
		return 0, false
	}
	return 32 + ((asc[0]&0x07)<<3 | asc[1]>>5), true
}

// Speaker positions in WAVE channel mask order.
var channelNames = []string{
	"FRONT_LEFT",
	"FRONT_RIGHT",
	"FRONT_CENTER",
	"LFE1",
	"REAR_LEFT",
	"REAR_RIGHT",
	"FRONT_LEFT_CENTER",
	"FRONT_RIGHT_CENTER",
	"REAR_CENTER",
	"SIDE_LEFT",
	"SIDE_RIGHT",
	"TOP_CENTER",
	"TOP_FRONT_LEFT",
	"TOP_FRONT_CENTER",
	"TOP_FRONT_RIGHT",
	"TOP_REAR_LEFT",
	"TOP_REAR_CENTER",
	"TOP_REAR_RIGHT",
}

// ChannelLayout renders a WAVE channel mask as position names joined by
// " | ". Bits beyond the known positions are ignored.
func ChannelLayout(mask uint32) string {
	var names []string
	for i, name := range channelNames {
		if mask&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, " | ")
}

// DefaultChannelLayout is the layout assumed for n channels when the
// container carries no mask: the first n WAVE positions.
func DefaultChannelLayout(n uint16) string {
	if n == 0 || int(n) > len(channelNames) {
		return ""
	}
	return ChannelLayout(1<<n - 1)
}
