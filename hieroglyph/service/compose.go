package service

import (
	"context"
	"fmt"
)

// State returns the session snapshot, re-querying availability when refresh is set or the
// last refresh failed.
func (s *Service) State(ctx context.Context, refresh bool) SessionState {
	sess := s.acquire(ctx)
	defer sess.mu.Unlock()
	if refresh || !sess.state.Synced {
		s.refresh(ctx, sess)
		return s.commit(ctx, sess)
	}
	return sess.state.clone()
}

// Select appends a grapheme to the selection in tap order and re-derives availability.
// The same grapheme may be selected more than once.
func (s *Service) Select(ctx context.Context, ref string) (SessionState, error) {
	g, err := s.catalog.Resolve(normalize(ref))
	if err != nil {
		return SessionState{}, err
	}
	sess := s.acquire(ctx)
	defer sess.mu.Unlock()
	if !sess.state.Synced {
		s.refresh(ctx, sess)
	}
	if sess.state.Synced && !sess.state.isAvailable(g.Value) {
		return sess.state.clone(), fmt.Errorf("%w: %s", ErrGraphemeUnavailable, g.Value)
	}
	sess.state.Selected = append(sess.state.Selected, g.Value)
	s.logger.Debug().Str("ns", sess.state.Namespace).Str("grapheme", g.Value).Int("selected", len(sess.state.Selected)).Msg("grapheme selected")
	s.refresh(ctx, sess)
	return s.commit(ctx, sess), nil
}

// Remove deletes one selected grapheme and re-derives availability from the backend with the
// remaining selection. Last wins over Position (1-based), which wins over Grapheme (last occurrence).
// Without any of them the most recent grapheme is removed.
func (s *Service) Remove(ctx context.Context, in *RemoveGraphemeInput) (SessionState, error) {
	if in == nil {
		in = &RemoveGraphemeInput{}
	}
	sess := s.acquire(ctx)
	defer sess.mu.Unlock()
	selected := sess.state.Selected
	if len(selected) == 0 {
		return sess.state.clone(), ErrEmptySelection
	}
	index := -1
	switch {
	case in.Last:
		index = len(selected) - 1
	case in.Position != 0:
		if in.Position < 1 || in.Position > len(selected) {
			return sess.state.clone(), fmt.Errorf("%w: position %d out of range 1..%d", ErrNotSelected, in.Position, len(selected))
		}
		index = in.Position - 1
	case in.Grapheme != "":
		g, err := s.catalog.Resolve(normalize(in.Grapheme))
		if err != nil {
			return sess.state.clone(), err
		}
		for i := len(selected) - 1; i >= 0; i-- {
			if selected[i] == g.Value {
				index = i
				break
			}
		}
		if index == -1 {
			return sess.state.clone(), fmt.Errorf("%w: %s", ErrNotSelected, g.Value)
		}
	default:
		index = len(selected) - 1
	}
	removed := selected[index]
	sess.state.Selected = append(append([]string{}, selected[:index]...), selected[index+1:]...)
	s.logger.Debug().Str("ns", sess.state.Namespace).Str("grapheme", removed).Int("selected", len(sess.state.Selected)).Msg("grapheme removed")
	s.refresh(ctx, sess)
	return s.commit(ctx, sess), nil
}

// Undo removes the most recently selected grapheme.
func (s *Service) Undo(ctx context.Context) (SessionState, error) {
	return s.Remove(ctx, &RemoveGraphemeInput{Last: true})
}

// Clear empties the selection; the challenge target is kept.
func (s *Service) Clear(ctx context.Context) SessionState {
	sess := s.acquire(ctx)
	defer sess.mu.Unlock()
	sess.state.Selected = []string{}
	s.refresh(ctx, sess)
	return s.commit(ctx, sess)
}

// NewChallenge fetches a random hieroglyph and makes it the composition target.
func (s *Service) NewChallenge(ctx context.Context) (SessionState, error) {
	target, err := s.api.RandomHieroglyph(ctx)
	if err != nil {
		return SessionState{}, fmt.Errorf("failed to fetch random hieroglyph: %w", err)
	}
	sess := s.acquire(ctx)
	defer sess.mu.Unlock()
	sess.state.Target = normalize(target)
	sess.state.Confirmed = ""
	sess.state.LastResult = nil
	sess.state.Attempts = 0
	sess.state.Selected = []string{}
	s.logger.Debug().Str("ns", sess.state.Namespace).Str("target", sess.state.Target).Msg("challenge started")
	s.refresh(ctx, sess)
	return s.commit(ctx, sess), nil
}

// Confirm checks the current selection against hieroglyph, or the challenge target when empty.
func (s *Service) Confirm(ctx context.Context, hieroglyph string) (*ConfirmOutput, error) {
	hieroglyph = normalize(hieroglyph)
	sess := s.acquire(ctx)
	if hieroglyph == "" {
		hieroglyph = sess.state.Target
	}
	if hieroglyph == "" {
		sess.mu.Unlock()
		return nil, ErrNoTarget
	}
	if len(sess.state.Selected) == 0 {
		sess.mu.Unlock()
		return nil, ErrEmptySelection
	}
	selection := append([]string{}, sess.state.Selected...)
	rev, target := sess.revision, sess.state.Target
	sess.mu.Unlock()

	ok, err := s.api.ConfirmGraphemes(ctx, hieroglyph, selection)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm %s: %w", hieroglyph, err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	result := ConfirmResult{Hieroglyph: hieroglyph, Graphemes: selection, Confirmed: ok, At: s.now()}
	if rev != sess.revision || target != sess.state.Target {
		s.logger.Debug().Str("ns", sess.state.Namespace).Str("hieroglyph", hieroglyph).Msg("discarded stale confirmation")
		return &ConfirmOutput{Result: result, Attempts: sess.state.Attempts, Discarded: true}, nil
	}
	sess.state.Attempts++
	sess.state.LastResult = &result
	if ok {
		sess.state.Confirmed = hieroglyph
	}
	s.logger.Debug().Str("ns", sess.state.Namespace).Str("hieroglyph", hieroglyph).Bool("confirmed", ok).Int("attempts", sess.state.Attempts).Msg("confirm")
	st := s.commit(ctx, sess)
	return &ConfirmOutput{Result: *st.LastResult, Attempts: st.Attempts}, nil
}
