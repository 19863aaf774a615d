package flv

const (
	headerSize    = 9
	tagHeaderSize = 11
	prevSizeLen   = 4

	tagTypeAudio  = 8
	tagTypeVideo  = 9
	tagTypeScript = 18

	videoTrackID = 1
	audioTrackID = 2

	soundFormatAAC = 10
	videoCodecAVC  = 7
	videoCodecHEVC = 12

	frameTypeCommand = 5

	packetTypeSequenceHeader = 0
	packetTypeEndOfSequence  = 2

	// discoveryTags bounds how many tags Open inspects to find the tracks.
	discoveryTags = 64
)

var audioCodecs = map[byte]string{
	0:  "pcm",
	1:  "adpcm_swf",
	2:  "mp3",
	3:  "pcm_s16le",
	4:  "nellymoser",
	5:  "nellymoser",
	6:  "nellymoser",
	7:  "pcm_alaw",
	8:  "pcm_mulaw",
	10: "aac",
	11: "speex",
	14: "mp3",
}

var videoCodecs = map[byte]string{
	2:  "flv1",
	3:  "flashsv",
	4:  "vp6f",
	5:  "vp6a",
	6:  "flashsv2",
	7:  "h264",
	12: "hevc",
}

var soundRates = [4]uint32{5512, 11025, 22050, 44100}

var aacRates = [13]uint32{96000, 88200, 64000, 48000, 44100, 32000, 24000, 22050, 16000, 12000, 11025, 8000, 7350}
