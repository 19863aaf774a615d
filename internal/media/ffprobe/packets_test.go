package ffprobe_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"symphonia/internal/media/ffprobe"
)

const packetDump = `[PACKET]
codec_type=video
stream_index=0
pts=1024
pts_time=0.080000
dts=-512
dts_time=-0.040000
size=3121
pos=48
flags=K__
[/PACKET]
[PACKET]
codec_type=audio
stream_index=1
pts=0
dts=0
size=371
pos=3169
flags=K__
[/PACKET]
[PACKET]
codec_type=video
stream_index=0
pts=N/A
dts=N/A
size=17
pos=N/A
flags=___
[/PACKET]
`

func TestParsePacketsFiltersStream(t *testing.T) {
	packets, err := ffprobe.ParsePackets(strings.NewReader(packetDump), 0)
	if err != nil {
		t.Fatalf("parse packets: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("unexpected packet count: got %d want 2", len(packets))
	}
	first := packets[0]
	if first.CodecType != "video" || first.PTS != 1024 || first.DTS != -512 || first.Size != 3121 || first.Pos != 48 {
		t.Fatalf("unexpected first packet: %+v", first)
	}
	if packets[1].PTS != 0 || packets[1].DTS != 0 || packets[1].Pos != 0 || packets[1].Size != 17 {
		t.Fatalf("unexpected N/A handling: %+v", packets[1])
	}

	all, err := ffprobe.ParsePackets(strings.NewReader(packetDump), -1)
	if err != nil {
		t.Fatalf("parse packets: %v", err)
	}
	if len(all) != 3 || all[1].StreamIndex != 1 {
		t.Fatalf("unexpected unfiltered packets: %+v", all)
	}
}

func TestParsePacketsMalformed(t *testing.T) {
	cases := map[string]string{
		"bad pts":      "[PACKET]\nstream_index=0\npts=abc\n[/PACKET]\n",
		"unterminated": "[PACKET]\nstream_index=0\n",
		"unmatched":    "[/PACKET]\n",
		"nested":       "[PACKET]\n[PACKET]\n",
	}
	for name, input := range cases {
		if _, err := ffprobe.ParsePackets(strings.NewReader(input), 0); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestPacketsRunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "packets.txt")
	if err := os.WriteFile(dataPath, []byte(packetDump), 0o644); err != nil {
		t.Fatalf("write dump: %v", err)
	}
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncase \"$*\" in\n*-show_packets*) cat " + dataPath + " ;;\n*) exit 3 ;;\nesac\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	packets, err := ffprobe.Packets(context.Background(), stub, "clip.mp4", 1)
	if err != nil {
		t.Fatalf("packets: %v", err)
	}
	if len(packets) != 1 || packets[0].Size != 371 {
		t.Fatalf("unexpected packets: %+v", packets)
	}
}
