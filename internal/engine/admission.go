package engine

import (
	"strings"
	"time"

	"inkmemory/internal/models"
)

// drainResult tells the caller what a drain pass accomplished. skippedAny
// signals that a candidate was rejected without admission, which must
// invalidate the sentence cache so the next edit provokes a fresh request
// instead of being suppressed by the dedup cache.
type drainResult struct {
	appliedAny bool
	skippedAny bool
}

// drainLocked admits waitlisted candidates into the applied set, newest
// first, while energy remains. Each admission costs the full threshold.
// Candidates are rejected (skipped) when stale, unlocatable, or
// overlapping an already-applied comment. Every pop consumes the
// candidate: rejected commentors stay in the state, marked by their
// missing appliedAt, and are never retried.
func (e *Engine) drainLocked(text string, currentEnergy int) drainResult {
	var res drainResult

	for len(e.waitlist) > 0 && currentEnergy-e.usedEnergy >= e.threshold {
		// LIFO: the most recently computed candidate has the freshest
		// context, so it goes first.
		id := e.waitlist[len(e.waitlist)-1]
		e.waitlist = e.waitlist[:len(e.waitlist)-1]

		candidate := e.commentorByID(id)
		if candidate == nil {
			continue
		}

		// Staleness: the document must be a pure append of the snapshot
		// the service analyzed. Any divergence before the snapshot point
		// invalidates the candidate.
		if !strings.HasPrefix(text, candidate.TextSnapshot) {
			e.logger.Debug("comment rejected: stale snapshot", "phrase", candidate.Phrase)
			rejections.WithLabelValues("stale").Inc()
			res.skippedAny = true
			continue
		}

		candidateRange, found := LocatePhrase(text, candidate.Phrase)
		if !found {
			e.logger.Debug("comment rejected: phrase not found", "phrase", candidate.Phrase)
			rejections.WithLabelValues("not_found").Inc()
			e.recordNotFoundPhrase(candidate.Phrase)
			res.skippedAny = true
			continue
		}

		if e.overlapsApplied(text, candidateRange) {
			e.logger.Debug("comment rejected: overlap", "phrase", candidate.Phrase)
			rejections.WithLabelValues("overlap").Inc()
			e.recordOverlappedPhrase(candidate.Phrase)
			res.skippedAny = true
			continue
		}

		now := time.Now().UnixMilli()
		candidate.AppliedAt = &now
		e.usedEnergy += e.threshold
		admissions.Inc()
		e.logger.Info("comment applied",
			"phrase", candidate.Phrase,
			"voice", candidate.Voice,
			"usedEnergy", e.usedEnergy)
		res.appliedAny = true
	}

	return res
}

// overlapsApplied tests the candidate range against every applied
// commentor's current range in the live text.
func (e *Engine) overlapsApplied(text string, candidate Range) bool {
	for i := range e.state.Commentors {
		c := &e.state.Commentors[i]
		if !c.Applied() {
			continue
		}
		applied, found := LocatePhrase(text, c.Phrase)
		if found && candidate.Overlaps(applied) {
			return true
		}
	}
	return false
}

func (e *Engine) recordOverlappedPhrase(phrase string) {
	for _, p := range e.state.OverlappedPhrases {
		if p == phrase {
			return
		}
	}
	e.state.OverlappedPhrases = append(e.state.OverlappedPhrases, phrase)
}

func (e *Engine) recordNotFoundPhrase(phrase string) {
	for _, p := range e.state.NotFoundPhrases {
		if p == phrase {
			return
		}
	}
	e.state.NotFoundPhrases = append(e.state.NotFoundPhrases, phrase)
}

func (e *Engine) commentorByID(id string) *models.Commentor {
	for i := range e.state.Commentors {
		if e.state.Commentors[i].ID == id {
			return &e.state.Commentors[i]
		}
	}
	return nil
}
