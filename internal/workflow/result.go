package workflow

import (
	"time"

	"symphonia/internal/history"
	"symphonia/internal/media"
)

// Result describes one run. Fields after Path are filled in as far as the
// run progressed.
type Result struct {
	RunID   string
	Path    string
	Backend string
	Format  media.FormatInfo
	Tracks  []media.Track
	Packet  *media.Packet
	Elapsed time.Duration
}

// Decoded reports whether the run produced a packet.
func (r Result) Decoded() bool { return r.Packet != nil }

// Probed reports whether a format was identified.
func (r Result) Probed() bool { return r.Format.ShortName != "" }

func (r Result) historyRun(started time.Time, runErr error) history.Run {
	run := history.Run{
		ID:        r.RunID,
		Path:      r.Path,
		Backend:   r.Backend,
		Format:    r.Format.ShortName,
		Status:    history.StatusDecoded,
		Elapsed:   r.Elapsed,
		StartedAt: started,
		Tracks:    history.TracksFrom(r.Tracks),
	}
	if r.Packet != nil {
		trackID, pts, size := r.Packet.TrackID, r.Packet.PTS, r.Packet.Len()
		run.PacketTrackID = &trackID
		run.PacketPTS = &pts
		run.PacketBytes = &size
	}
	if runErr != nil {
		run.Status = history.StatusFailed
		run.ErrorKind = errorKind(runErr)
		run.ErrorMessage = runErr.Error()
	}
	return run
}

func errorKind(err error) string {
	if kind := media.KindOf(err); kind != "" {
		return string(kind)
	}
	return "other"
}
