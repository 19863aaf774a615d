package testsupport

import "encoding/binary"

// WAV builds a PCM RIFF/WAVE file. A non-empty info string adds a LIST/INFO
// chunk before the data chunk.
func WAV(channels uint16, sampleRate uint32, bitsPerSample uint16, pcm []byte, info string) []byte {
	blockAlign := channels * bitsPerSample / 8
	fmtChunk := []byte("fmt ")
	fmtChunk = binary.LittleEndian.AppendUint32(fmtChunk, 16)
	fmtChunk = binary.LittleEndian.AppendUint16(fmtChunk, 1)
	fmtChunk = binary.LittleEndian.AppendUint16(fmtChunk, channels)
	fmtChunk = binary.LittleEndian.AppendUint32(fmtChunk, sampleRate)
	fmtChunk = binary.LittleEndian.AppendUint32(fmtChunk, sampleRate*uint32(blockAlign))
	fmtChunk = binary.LittleEndian.AppendUint16(fmtChunk, blockAlign)
	fmtChunk = binary.LittleEndian.AppendUint16(fmtChunk, bitsPerSample)

	var list []byte
	if info != "" {
		text := append([]byte(info), 0)
		if len(text)%2 == 1 {
			text = append(text, 0)
		}
		sub := []byte("INAM")
		sub = binary.LittleEndian.AppendUint32(sub, uint32(len(text)))
		sub = append(sub, text...)
		list = []byte("LIST")
		list = binary.LittleEndian.AppendUint32(list, uint32(4+len(sub)))
		list = append(list, "INFO"...)
		list = append(list, sub...)
	}

	data := []byte("data")
	data = binary.LittleEndian.AppendUint32(data, uint32(len(pcm)))
	data = append(data, pcm...)
	if len(pcm)%2 == 1 {
		data = append(data, 0)
	}

	body := append([]byte("WAVE"), fmtChunk...)
	body = append(body, list...)
	body = append(body, data...)
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

// PCMFrames returns n frames of 16-bit PCM for the channel count.
func PCMFrames(n int, channels int) []byte {
	out := make([]byte, n*channels*2)
	for i := range out {
		out[i] = byte(i * 7)
	}
	return out
}
