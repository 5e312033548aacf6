package ranking

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hyperjump/kensaku/internal/keyword"
)

// outcome is what a stage answers when advanced: either refine further
// (continue) or hand a finished bucket back (yield).
type outcome struct {
	yield  bool
	bucket *roaring.Bitmap
}

var proceed = outcome{}

func yieldBucket(b *roaring.Bitmap) outcome {
	return outcome{yield: true, bucket: b}
}

// stage is one ranking rule with its per-query state. It is a closed sum type:
// rule selects which of the state fields is live.
type stage struct {
	rule  Rule
	word  wordState
	typo  typoState
	exact exactState
}

func newStage(rule Rule, set keyword.CandidateSet) stage {
	s := stage{rule: rule}
	switch rule {
	case Word:
		s.word = wordState{words: len(set), active: len(set)}
	case Typo, Exact:
	default:
		panic(fmt.Sprintf("ranking: unknown rule %d", int(rule)))
	}
	return s
}

// advance refines the coarser stage's current selection. coarser is read-only.
func (s *stage) advance(coarser *roaring.Bitmap, set keyword.CandidateSet) outcome {
	switch s.rule {
	case Word:
		return s.word.advance(coarser, set)
	case Typo:
		return s.typo.advance(coarser, set)
	case Exact:
		return s.exact.advance(coarser, set)
	}
	panic(fmt.Sprintf("ranking: unknown rule %d", int(s.rule)))
}

// selection is the stage's current bucket so far, shared read-only with the
// next finer stage.
func (s *stage) selection() *roaring.Bitmap {
	var sel *roaring.Bitmap
	switch s.rule {
	case Word:
		sel = s.word.current
	case Typo:
		sel = s.typo.current
	case Exact:
		sel = s.exact.current
	}
	if sel == nil {
		return roaring.New()
	}
	return sel
}

// snapshot returns the current selection as a finished bucket.
func (s *stage) snapshot() *roaring.Bitmap {
	return s.selection().Clone()
}

// cleanup forgets documents that were placed in an emitted bucket.
func (s *stage) cleanup(placed *roaring.Bitmap) {
	for _, sel := range []*roaring.Bitmap{s.word.current, s.typo.current, s.exact.current} {
		if sel != nil {
			sel.AndNot(placed)
		}
	}
}

// wordState keeps the first active query words as a conjunction and drops the
// rightmost one each time the finer stages are done with the current selection.
type wordState struct {
	words   int
	active  int
	entered bool
	current *roaring.Bitmap
}

func (w *wordState) advance(coarser *roaring.Bitmap, set keyword.CandidateSet) outcome {
	if w.entered {
		w.active--
		w.entered = false
	}
	for ; w.active > 0; w.active-- {
		sel := coarser.Clone()
		for i := 0; i < w.active && !sel.IsEmpty(); i++ {
			sel.And(set[i].Docs())
		}
		if !sel.IsEmpty() {
			w.current = sel
			w.entered = true
			return proceed
		}
	}
	// Relaxing does not rerun a prefix search for the new last word, so documents
	// only reachable through that prefix are not offered here.
	w.active = w.words
	w.current = nil
	return yieldBucket(roaring.New())
}

// typoState walks total typo levels upward, selecting the documents of the
// coarser selection that sit on the lowest level not visited yet.
type typoState struct {
	level   int
	entered bool
	current *roaring.Bitmap
}

func (t *typoState) advance(coarser *roaring.Bitmap, set keyword.CandidateSet) outcome {
	if t.entered {
		t.level++
		t.entered = false
	}
	best := -1
	sel := roaring.New()
	for it := coarser.Iterator(); it.HasNext(); {
		doc := it.Next()
		d := set.TotalDistance(doc)
		switch {
		case d < t.level:
			// Left behind by a finer stage on an earlier level.
		case best < 0 || d < best:
			best = d
			sel.Clear()
			sel.Add(doc)
		case d == best:
			sel.Add(doc)
		}
	}
	if best < 0 {
		t.level = 0
		t.current = nil
		return yieldBucket(roaring.New())
	}
	t.level = best
	t.current = sel
	t.entered = true
	return proceed
}

// exactState splits the coarser selection into documents containing a query word
// verbatim and the rest, yielding them in that order.
type exactState struct {
	current *roaring.Bitmap
}

func (e *exactState) advance(coarser *roaring.Bitmap, set keyword.CandidateSet) outcome {
	if coarser.IsEmpty() {
		e.current = nil
		return yieldBucket(roaring.New())
	}
	bucket := roaring.And(coarser, set.ExactDocs())
	if bucket.IsEmpty() {
		bucket = coarser.Clone()
	}
	e.current = bucket
	return yieldBucket(bucket.Clone())
}
