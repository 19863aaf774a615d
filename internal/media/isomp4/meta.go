package isomp4

import (
	"fmt"
	"io"

	"github.com/abema/go-mp4"

	"symphonia/internal/media"
)

// Sample entry children carried through as video extra data, by box type.
var videoConfigIDs = map[string]string{
	"avcC": media.ExtraDataAVCConfig,
	"hvcC": media.ExtraDataHEVCConfig,
	"vpcC": media.ExtraDataVP9Config,
	"av1C": media.ExtraDataAV1Config,
	"dvcC": media.ExtraDataDolbyVisionConfig,
	"dvvC": media.ExtraDataDolbyVisionConfig,
	"dvwC": media.ExtraDataDolbyVisionConfig,
	"hvcE": media.ExtraDataDolbyVisionELHEVC,
}

// maxConfigSize bounds how much of a single configuration box is read.
const maxConfigSize = 1 << 20

// trackMeta carries the per-track fields mp4.Probe does not report.
type trackMeta struct {
	handler            string
	entry              string
	language           string
	enabled            bool
	width, height      uint16
	channels           uint16
	sampleSize         uint16
	sampleRate         uint32
	constantSampleSize uint32

	videoConfigs []media.ExtraData
	// audioConfig is the AudioSpecificConfig from esds or the dOps payload.
	audioConfig []byte
}

func readTrackMeta(r io.ReadSeeker) (map[uint32]trackMeta, error) {
	traks, err := mp4.ExtractBoxes(r, nil, []mp4.BoxPath{{mp4.BoxTypeMoov(), mp4.BoxTypeTrak()}})
	if err != nil {
		return nil, err
	}
	stsdPath := mp4.BoxPath{mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl(), mp4.BoxTypeStsd()}
	out := make(map[uint32]trackMeta, len(traks))
	for _, trak := range traks {
		boxes, err := mp4.ExtractBoxesWithPayload(r, trak, []mp4.BoxPath{
			{mp4.BoxTypeTkhd()},
			{mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
			{mp4.BoxTypeMdia(), mp4.BoxTypeHdlr()},
			{mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl(), mp4.BoxTypeStsz()},
			append(append(mp4.BoxPath{}, stsdPath...), mp4.BoxTypeAvc1()),
			append(append(mp4.BoxPath{}, stsdPath...), mp4.BoxTypeMp4a()),
			append(append(mp4.BoxPath{}, stsdPath...), mp4.BoxTypeMp4a(), mp4.BoxTypeEsds()),
		})
		if err != nil {
			return nil, err
		}
		entries, err := mp4.ExtractBoxes(r, trak, []mp4.BoxPath{append(append(mp4.BoxPath{}, stsdPath...), mp4.BoxTypeAny())})
		if err != nil {
			return nil, err
		}

		var id uint32
		var meta trackMeta
		if len(entries) > 0 {
			meta.entry = entries[0].Type.String()
			if err := readEntryConfigs(r, entries[0], &meta); err != nil {
				return nil, err
			}
		}
		for _, b := range boxes {
			switch p := b.Payload.(type) {
			case *mp4.Tkhd:
				id = p.TrackID
				meta.enabled = p.CheckFlag(0x000001)
				meta.width, meta.height = p.GetWidthInt(), p.GetHeightInt()
			case *mp4.Mdhd:
				meta.language = unpackLanguage(p.Language)
			case *mp4.Hdlr:
				meta.handler = fourCCString(p.HandlerType)
			case *mp4.Stsz:
				meta.constantSampleSize = p.SampleSize
			case *mp4.VisualSampleEntry:
				meta.width, meta.height = p.Width, p.Height
			case *mp4.AudioSampleEntry:
				meta.channels = p.ChannelCount
				meta.sampleSize = p.SampleSize
				meta.sampleRate = uint32(p.GetSampleRateInt())
			case *mp4.Esds:
				for _, d := range p.Descriptors {
					if d.Tag == mp4.DecSpecificInfoTag {
						meta.audioConfig = d.Data
					}
				}
			}
		}
		out[id] = meta
	}
	return out, nil
}

// readEntryConfigs copies the decoder configuration boxes nested in a sample
// entry. Entry types go-mp4 cannot parse have no reachable children.
func readEntryConfigs(r io.ReadSeeker, entry *mp4.BoxInfo, meta *trackMeta) error {
	if !entry.IsSupportedType() {
		return nil
	}
	children, err := mp4.ExtractBoxes(r, entry, []mp4.BoxPath{{mp4.BoxTypeAny()}})
	if err != nil {
		return err
	}
	for _, child := range children {
		typ := child.Type.String()
		id, isVideo := videoConfigIDs[typ]
		if !isVideo && typ != "dOps" {
			continue
		}
		data, err := readPayload(r, child)
		if err != nil {
			return fmt.Errorf("%s: %w", typ, err)
		}
		if isVideo {
			meta.videoConfigs = append(meta.videoConfigs, media.ExtraData{ID: id, Data: data})
		} else {
			meta.audioConfig = data
		}
	}
	return nil
}

func readPayload(r io.ReadSeeker, bi *mp4.BoxInfo) ([]byte, error) {
	size := bi.Size - bi.HeaderSize
	if size > maxConfigSize {
		return nil, fmt.Errorf("configuration box of %d bytes", size)
	}
	if _, err := bi.SeekToPayload(r); err != nil {
		return nil, err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// unpackLanguage turns the three packed 5-bit mdhd letters into ASCII.
func unpackLanguage(packed [3]byte) string {
	if packed == [3]byte{} {
		return ""
	}
	b := make([]byte, 3)
	for i, c := range packed {
		b[i] = c + 0x60
	}
	return string(b)
}
