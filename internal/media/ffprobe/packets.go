package ffprobe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Packet is one [PACKET] section of ffprobe -show_packets output.
// Timestamps ffprobe prints as N/A are zero.
type Packet struct {
	StreamIndex int
	CodecType   string
	PTS         int64
	DTS         int64
	Size        int
	Pos         int64
}

// Packets runs ffprobe -show_packets against path and returns the packets
// of stream streamIndex in file order. A negative index keeps every stream.
func Packets(ctx context.Context, binary string, path string, streamIndex int) ([]Packet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ffprobe packets: empty path")
	}
	resolved, err := Lookup(binary)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, resolved, "-v", "error", "-hide_banner", "-show_packets", "--", path) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return ParsePackets(bytes.NewReader(output), streamIndex)
}

// ParsePackets decodes the default writer's [PACKET] sections.
func ParsePackets(r io.Reader, streamIndex int) ([]Packet, error) {
	var (
		packets []Packet
		current *Packet
		line    int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "[PACKET]":
			if current != nil {
				return nil, fmt.Errorf("ffprobe packets: line %d: nested [PACKET]", line)
			}
			current = &Packet{}
			continue
		case "[/PACKET]":
			if current == nil {
				return nil, fmt.Errorf("ffprobe packets: line %d: unmatched [/PACKET]", line)
			}
			if streamIndex < 0 || current.StreamIndex == streamIndex {
				packets = append(packets, *current)
			}
			current = nil
			continue
		}
		if current == nil {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			continue
		}
		if err := current.set(key, value); err != nil {
			return nil, fmt.Errorf("ffprobe packets: line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w", err)
	}
	if current != nil {
		return nil, errors.New("ffprobe packets: unterminated [PACKET]")
	}
	return packets, nil
}

func (p *Packet) set(key, value string) error {
	var err error
	switch key {
	case "stream_index":
		p.StreamIndex, err = strconv.Atoi(value)
	case "codec_type":
		p.CodecType = value
	case "pts":
		p.PTS, err = parseTimestamp(value)
	case "dts":
		p.DTS, err = parseTimestamp(value)
	case "size":
		if value != "N/A" {
			p.Size, err = strconv.Atoi(value)
		}
	case "pos":
		p.Pos, err = parseTimestamp(value)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func parseTimestamp(value string) (int64, error) {
	if value == "N/A" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
