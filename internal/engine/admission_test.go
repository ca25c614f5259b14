package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"inkmemory/internal/models"
)

func waitlistCandidate(e *Engine, phrase, voice, snapshot string) string {
	id := uuid.New().String()
	e.state.Commentors = append(e.state.Commentors, models.Commentor{
		ID:           id,
		Phrase:       phrase,
		Voice:        voice,
		Comment:      "a comment",
		ComputedAt:   time.Now().UnixMilli(),
		TextSnapshot: snapshot,
	})
	e.waitlist = append(e.waitlist, id)
	return id
}

func appliedCount(e *Engine) int {
	return len(e.state.AppliedCommentors())
}

// Energy one short of the threshold admits nothing.
func TestDrain_InsufficientEnergy(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "The alpha wolf howled."
	waitlistCandidate(e, "alpha", "Holder", text)

	res := e.drainLocked(text, 39)
	if res.appliedAny {
		t.Error("nothing should be admitted at energy 39")
	}
	if res.skippedAny {
		t.Error("an energy stall is not a rejection")
	}
	if appliedCount(e) != 0 {
		t.Errorf("applied count = %d, want 0", appliedCount(e))
	}
	if len(e.waitlist) != 1 {
		t.Errorf("candidate should stay waitlisted, waitlist = %d", len(e.waitlist))
	}
}

// Energy exactly at the threshold admits exactly one.
func TestDrain_ExactThreshold(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "The alpha wolf howled."
	id := waitlistCandidate(e, "alpha", "Holder", text)

	res := e.drainLocked(text, 40)
	if !res.appliedAny {
		t.Fatal("expected an admission at energy 40")
	}
	if e.usedEnergy != 40 {
		t.Errorf("usedEnergy = %d, want 40", e.usedEnergy)
	}
	c := e.commentorByID(id)
	if c == nil || !c.Applied() {
		t.Error("candidate should be marked applied")
	}
}

// Two candidates on overlapping phrases: one admitted, the
// other rejected with its phrase recorded for upstream feedback.
func TestDrain_OverlapRejection(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "alphabeta and the rest."
	// "alpha" at [0,5) and "phabe" at [2,7) overlap.
	waitlistCandidate(e, "alpha", "Holder", text)
	waitlistCandidate(e, "phabe", "Mirror", text)

	res := e.drainLocked(text, 200)
	if !res.appliedAny || !res.skippedAny {
		t.Fatalf("expected one admission and one rejection, got %+v", res)
	}
	if appliedCount(e) != 1 {
		t.Errorf("applied count = %d, want 1", appliedCount(e))
	}
	if e.usedEnergy != 40 {
		t.Errorf("usedEnergy = %d, want 40", e.usedEnergy)
	}
	if len(e.state.OverlappedPhrases) != 1 {
		t.Fatalf("overlappedPhrases = %v, want one entry", e.state.OverlappedPhrases)
	}
}

// A snapshot the text no longer starts with is stale
// regardless of energy.
func TestDrain_StaleSnapshot(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	waitlistCandidate(e, "Hello", "Holder", "Hello")

	res := e.drainLocked("Goodbye", 10000)
	if res.appliedAny {
		t.Error("stale candidate must not be admitted")
	}
	if !res.skippedAny {
		t.Error("stale rejection must be reported as a skip")
	}
	if appliedCount(e) != 0 {
		t.Errorf("applied count = %d, want 0", appliedCount(e))
	}
}

// A pure append since the snapshot keeps the candidate fresh.
func TestDrain_AppendIsNotStale(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	waitlistCandidate(e, "Hello", "Holder", "Hello")

	res := e.drainLocked("Hello and more text", 40)
	if !res.appliedAny {
		t.Error("append-only growth should not reject the candidate")
	}
}

func TestDrain_PhraseNotFound(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "Some document text."
	waitlistCandidate(e, "vanished phrase", "Holder", text)

	res := e.drainLocked(text, 100)
	if res.appliedAny || !res.skippedAny {
		t.Fatalf("expected a skip without admission, got %+v", res)
	}
	if len(e.state.NotFoundPhrases) != 1 || e.state.NotFoundPhrases[0] != "vanished phrase" {
		t.Errorf("notFoundPhrases = %v", e.state.NotFoundPhrases)
	}
}

// Admission budget: a single drain never admits more than
// floor((energy - usedBefore) / threshold) candidates.
func TestDrain_Budget(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "alpha beta gamma delta epsilon."
	for _, phrase := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		waitlistCandidate(e, phrase, "Holder", text)
	}

	// Energy 100 with threshold 40 affords exactly 2 admissions.
	e.drainLocked(text, 100)
	if got := appliedCount(e); got != 2 {
		t.Errorf("applied count = %d, want 2", got)
	}
	if e.usedEnergy != 80 {
		t.Errorf("usedEnergy = %d, want 80", e.usedEnergy)
	}
	if len(e.waitlist) != 3 {
		t.Errorf("waitlist = %d, want 3 remaining", len(e.waitlist))
	}
}

// Drain order is LIFO: the most recently waitlisted candidate wins when
// energy only covers one admission.
func TestDrain_LIFO(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "alpha and beta are here."
	older := waitlistCandidate(e, "alpha", "Holder", text)
	newer := waitlistCandidate(e, "beta", "Mirror", text)

	e.drainLocked(text, 40)
	if c := e.commentorByID(newer); c == nil || !c.Applied() {
		t.Error("newest candidate should be admitted first")
	}
	if c := e.commentorByID(older); c != nil && c.Applied() {
		t.Error("older candidate should still be waiting")
	}
}

// Non-overlap invariant: after any drain, no two applied commentors
// occupy overlapping ranges in the text.
func TestDrain_NonOverlapInvariant(t *testing.T) {
	e := New(Config{EnergyThreshold: 10})
	text := "the quick brown fox jumps over the lazy dog."
	for _, phrase := range []string{"quick brown", "brown fox", "fox jumps", "lazy dog", "the lazy"} {
		waitlistCandidate(e, phrase, "Holder", text)
	}
	e.drainLocked(text, 10000)

	applied := e.state.AppliedCommentors()
	for i := 0; i < len(applied); i++ {
		ri, ok := LocatePhrase(text, applied[i].Phrase)
		if !ok {
			t.Fatalf("applied phrase %q not locatable", applied[i].Phrase)
		}
		for j := i + 1; j < len(applied); j++ {
			rj, _ := LocatePhrase(text, applied[j].Phrase)
			if ri.Overlaps(rj) {
				t.Errorf("applied phrases %q and %q overlap", applied[i].Phrase, applied[j].Phrase)
			}
		}
	}
}

func TestDrain_OverlappedPhraseRecordedOnce(t *testing.T) {
	e := New(Config{EnergyThreshold: 40})
	text := "alphabeta and the rest."
	waitlistCandidate(e, "alpha", "Holder", text)
	e.drainLocked(text, 40)

	// The same overlapping phrase rejected twice is recorded once.
	waitlistCandidate(e, "phabe", "Mirror", text)
	e.drainLocked(text, 100)
	waitlistCandidate(e, "phabe", "Mirror", text)
	e.drainLocked(text, 100)

	if len(e.state.OverlappedPhrases) != 1 {
		t.Errorf("overlappedPhrases = %v, want a single entry", e.state.OverlappedPhrases)
	}
}
