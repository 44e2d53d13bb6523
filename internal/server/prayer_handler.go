package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/at-ishikawa/biblia/internal/prayer"
	"github.com/at-ishikawa/biblia/internal/session"
)

type savedPrayer struct {
	ID string `json:"id"`
	prayer.Metadata
}

// postPrayer records the request body as the prayer of a verse, locked until
// the unlock query parameter (YYYY-MM-DD).
func (s *Server) postPrayer(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.verseRef(r)
		if err != nil {
			return nil, err
		}
		value := r.URL.Query().Get("unlock")
		if value == "" {
			return nil, prayer.ErrMissingUnlockDate
		}
		unlock, err := prayer.ParseDate(value)
		if err != nil {
			return nil, &badRequestError{err: err}
		}

		recording, err := sess.Prayers.StartRecording(r.Context(), ref, prayer.ReaderCapturer{Reader: r.Body})
		if err != nil {
			return nil, err
		}
		select {
		case <-sess.Prayers.Drained():
		case <-r.Context().Done():
		}
		clip, err := sess.Prayers.StopRecording()
		if err != nil {
			return nil, err
		}
		saved, err := sess.Prayers.SavePrayer(r.Context(), ref, unlock)
		if err != nil {
			return nil, err
		}
		locked, err := sess.Prayers.IsLocked(r.Context(), ref)
		if err != nil {
			return nil, err
		}
		return savedPrayer{
			ID: recording.ID,
			Metadata: prayer.Metadata{
				UnlockDate: saved.UnlockDate,
				RecordDate: saved.RecordDate,
				Duration:   clip.Duration,
				Locked:     locked,
			},
		}, nil
	})
}

// getPrayer streams the audio of an unlocked prayer. A locked prayer only
// discloses its metadata, as JSON.
func (s *Server) getPrayer(w http.ResponseWriter, r *http.Request) {
	var playback prayer.Playback
	err := s.withSession(r.Context(), chi.URLParam(r, "user"), func(sess *session.Session) error {
		ref, err := s.verseRef(r)
		if err != nil {
			return err
		}
		playback, err = sess.Prayers.Play(r.Context(), ref)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if playback.Locked {
		success(w, playback.Metadata)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(playback.Audio)))
	w.Header().Set("X-Prayer-Record-Date", playback.RecordDate.String())
	w.Header().Set("X-Prayer-Duration", strconv.Itoa(playback.Duration))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(playback.Audio)
}
