package ranking

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hyperjump/kensaku/internal/keyword"
	"go.uber.org/zap"
)

// DefaultMaxSteps bounds the cascade loop when no budget is configured.
const DefaultMaxSteps = 10000

// Config tunes a cascade run.
type Config struct {
	// MaxSteps caps the number of stage advances. Zero means unlimited.
	MaxSteps int
	// Logger receives a debug summary of every run. Nil disables logging.
	Logger *zap.Logger
}

// Result is the outcome of a cascade run.
type Result struct {
	// Buckets are the emitted buckets in order, empty ones included. They are
	// pairwise disjoint.
	Buckets []*roaring.Bitmap
	// IDs are the buckets flattened in emission order and cut to the limit.
	IDs []uint32
	// BucketOf[i] is the index in Buckets of the bucket IDs[i] came from.
	BucketOf []int
	// Steps counts stage advances.
	Steps int
	// Truncated reports that the step budget ran out before the limit was
	// reached or the candidates were exhausted.
	Truncated bool
}

// Run sorts the candidates of set into disjoint buckets using rules, coarsest
// first, until limit documents are placed or nothing is left to place. set is
// consumed: placed documents are removed from it.
//
// A cursor walks the stages. A stage that continues hands its selection to the
// next finer stage; the finest stage's selection becomes a bucket. A stage that
// yields a non-empty bucket stays under the cursor; an empty yield moves the
// cursor back to the coarser stage, and ends the run at the coarsest one.
func Run(set keyword.CandidateSet, rules []Rule, limit int, cfg Config) *Result {
	res := &Result{}
	if limit <= 0 || len(set) == 0 {
		return res
	}

	placed := uint64(0)
	place := func(bucket *roaring.Bitmap, stages []stage) {
		for i := range stages {
			stages[i].cleanup(bucket)
		}
		set.Remove(bucket)
		res.Buckets = append(res.Buckets, bucket)
		placed += bucket.GetCardinality()
	}

	if len(rules) == 0 {
		place(set.Universe(), nil)
		res.flatten(limit)
		res.log(cfg.Logger, rules, limit)
		return res
	}

	stages := make([]stage, len(rules))
	for i, r := range rules {
		stages[i] = newStage(r, set)
	}
	finest := len(stages) - 1
	cursor := 0

loop:
	for placed < uint64(limit) {
		if cfg.MaxSteps > 0 && res.Steps >= cfg.MaxSteps {
			res.Truncated = true
			break
		}
		res.Steps++

		var coarser *roaring.Bitmap
		if cursor == 0 {
			coarser = set.Universe()
		} else {
			coarser = stages[cursor-1].selection()
		}

		out := stages[cursor].advance(coarser, set)
		switch {
		case !out.yield && cursor == finest:
			place(stages[cursor].snapshot(), stages)
		case !out.yield:
			cursor++
		case out.bucket.IsEmpty():
			if cursor == 0 {
				break loop
			}
			cursor--
			res.Buckets = append(res.Buckets, out.bucket)
		default:
			place(out.bucket, stages)
		}
	}

	res.flatten(limit)
	res.log(cfg.Logger, rules, limit)
	return res
}

func (r *Result) flatten(limit int) {
	for b, bucket := range r.Buckets {
		for it := bucket.Iterator(); it.HasNext() && len(r.IDs) < limit; {
			r.IDs = append(r.IDs, it.Next())
			r.BucketOf = append(r.BucketOf, b)
		}
	}
}

func (r *Result) log(logger *zap.Logger, rules []Rule, limit int) {
	if logger == nil {
		return
	}
	logger.Debug("cascade finished",
		zap.String("rules", FormatRules(rules)),
		zap.Int("limit", limit),
		zap.Int("steps", r.Steps),
		zap.Int("buckets", len(r.Buckets)),
		zap.Int("documents", len(r.IDs)),
		zap.Bool("truncated", r.Truncated),
	)
}
