package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// session guards one namespace state. The lock is released while a backend call is in flight;
// revision detects mutations made meanwhile.
type session struct {
	mu       sync.Mutex
	state    SessionState
	revision uint64
	loaded   bool
	// dead is set once Reset dropped the session; it is never persisted again.
	dead bool
}

// acquire returns the namespace session locked; the caller must unlock it.
func (s *Service) acquire(ctx context.Context) *session {
	ns := s.Namespace(ctx)
	var sess *session
	for {
		s.sessions.mu.Lock()
		var ok bool
		if sess, ok = s.sessions.items[ns]; !ok {
			sess = &session{}
			s.sessions.items[ns] = sess
		}
		s.sessions.mu.Unlock()
		sess.mu.Lock()
		if !sess.dead {
			break
		}
		sess.mu.Unlock()
	}
	if !sess.loaded {
		sess.loaded = true
		if st, ok := s.restore(ctx, ns); ok {
			sess.state = st
		} else {
			sess.state = s.newState(ns)
		}
	}
	if s.ttl > 0 && s.now().Sub(sess.state.UpdatedAt) > s.ttl {
		s.logger.Debug().Str("ns", ns).Time("updated", sess.state.UpdatedAt).Msg("session expired")
		s.remove(ctx, ns)
		sess.state = s.newState(ns)
		sess.revision++
	}
	return sess
}

func (s *Service) newState(ns string) SessionState {
	now := s.now()
	return SessionState{
		ID:           uuid.New().String(),
		Namespace:    ns,
		Selected:     []string{},
		AllAvailable: true,
		Synced:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// refresh re-derives the available set from the backend for the current selection.
// It must be called with sess.mu held; the lock is dropped during the call.
func (s *Service) refresh(ctx context.Context, sess *session) {
	sess.revision++
	if len(sess.state.Selected) == 0 {
		sess.state.Available = nil
		sess.state.AllAvailable = true
		sess.state.Synced = true
		sess.state.SyncError = ""
		return
	}
	rev := sess.revision
	selection := append([]string(nil), sess.state.Selected...)
	ns := sess.state.Namespace

	sess.mu.Unlock()
	started := s.now()
	available, err := s.api.AvailableGraphemes(ctx, selection)
	sess.mu.Lock()

	if rev != sess.revision {
		s.logger.Debug().Str("ns", ns).Strs("selection", selection).Msg("discarded stale availability")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("ns", ns).Strs("selection", selection).Msg("availability refresh failed")
		sess.state.Synced = false
		sess.state.SyncError = err.Error()
		return
	}
	normalized := make([]string, 0, len(available))
	for _, v := range available {
		if v = normalize(v); v != "" {
			normalized = append(normalized, v)
		}
	}
	sess.state.Available = normalized
	sess.state.AllAvailable = false
	sess.state.Synced = true
	sess.state.SyncError = ""
	s.logger.Debug().Str("ns", ns).Int("selected", len(selection)).Int("available", len(normalized)).
		Dur("dur", s.now().Sub(started)).Msg("availability refreshed")
}

// commit stamps, persists and snapshots the state; called with sess.mu held.
func (s *Service) commit(ctx context.Context, sess *session) SessionState {
	sess.state.UpdatedAt = s.now()
	if !sess.dead {
		s.persist(ctx, sess.state)
	}
	return sess.state.clone()
}

func (st SessionState) clone() SessionState {
	ret := st
	ret.Selected = append([]string{}, st.Selected...)
	if st.Available != nil {
		ret.Available = append([]string{}, st.Available...)
	}
	if st.LastResult != nil {
		r := *st.LastResult
		r.Graphemes = append([]string{}, st.LastResult.Graphemes...)
		ret.LastResult = &r
	}
	return ret
}

// isAvailable reports whether value may be appended to the selection.
func (st SessionState) isAvailable(value string) bool {
	if st.AllAvailable {
		return true
	}
	for _, v := range st.Available {
		if v == value {
			return true
		}
	}
	return false
}

func (st SessionState) count(value string) int {
	n := 0
	for _, v := range st.Selected {
		if v == value {
			n++
		}
	}
	return n
}

func (s *Service) sessionURL(ns string) string {
	if s.stateBase == "" {
		return ""
	}
	return strings.Join([]string{s.stateBase, "hieroglyph", safePart(ns), "session.json"}, "/")
}

func (s *Service) persist(ctx context.Context, st SessionState) {
	URL := s.sessionURL(st.Namespace)
	if URL == "" {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Warn().Err(err).Str("ns", st.Namespace).Msg("failed to encode session")
		return
	}
	if err := s.fs.Upload(ctx, URL, 0o600, bytes.NewReader(data)); err != nil {
		s.logger.Warn().Err(err).Str("url", URL).Msg("failed to persist session")
	}
}

func (s *Service) restore(ctx context.Context, ns string) (SessionState, bool) {
	URL := s.sessionURL(ns)
	if URL == "" {
		return SessionState{}, false
	}
	if ok, err := s.fs.Exists(ctx, URL); err != nil || !ok {
		return SessionState{}, false
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", URL).Msg("failed to read session")
		return SessionState{}, false
	}
	var st SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn().Err(err).Str("url", URL).Msg("failed to decode session")
		return SessionState{}, false
	}
	st.Namespace = ns
	if st.Selected == nil {
		st.Selected = []string{}
	}
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = s.now()
	}
	return st, true
}

func (s *Service) remove(ctx context.Context, ns string) {
	URL := s.sessionURL(ns)
	if URL == "" {
		return
	}
	if ok, _ := s.fs.Exists(ctx, URL); ok {
		if err := s.fs.Delete(ctx, URL); err != nil {
			s.logger.Warn().Err(err).Str("url", URL).Msg("failed to delete session")
		}
	}
}

// Reset drops the namespace session from memory and storage and returns the fresh state.
// Operations still in flight on the dropped session neither persist nor apply backend answers.
func (s *Service) Reset(ctx context.Context) SessionState {
	ns := s.Namespace(ctx)
	s.sessions.mu.Lock()
	sess := s.sessions.items[ns]
	delete(s.sessions.items, ns)
	s.sessions.mu.Unlock()
	if sess != nil {
		sess.mu.Lock()
		sess.dead = true
		sess.revision++
		sess.mu.Unlock()
	}
	s.remove(ctx, ns)
	s.logger.Debug().Str("ns", ns).Msg("session reset")
	return s.State(ctx, false)
}
