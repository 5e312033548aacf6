// Package keyword builds the fuzzy-searchable word index and turns query words
// into typo-bucketed candidate document sets.
package keyword

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/blevesearch/vellum"
	"github.com/hyperjump/kensaku/pkg/utils"
)

// WordIndex maps every normalized word of a corpus to the documents containing it.
// Words live in a vellum FST whose values are dense bucket ids; bucket id i owns
// bitmaps[i]. A WordIndex is immutable once built.
type WordIndex struct {
	fst     *vellum.FST
	bitmaps []*roaring.Bitmap
}

type posting struct {
	word string
	doc  uint32
}

// BuildWordIndex tokenizes every document on whitespace, normalizes each token and
// indexes it under the document's position in documents. Documents without any
// token contribute nothing.
func BuildWordIndex(documents []string) *WordIndex {
	var postings []posting
	for id, doc := range documents {
		for _, token := range strings.Fields(doc) {
			word := utils.Normalize(token)
			if word == "" {
				continue
			}
			postings = append(postings, posting{word: word, doc: uint32(id)})
		}
	}
	sort.Slice(postings, func(i, j int) bool {
		if postings[i].word != postings[j].word {
			return postings[i].word < postings[j].word
		}
		return postings[i].doc < postings[j].doc
	})

	var buf bytes.Buffer
	builder, err := vellum.New(&buf, nil)
	if err != nil {
		panic(fmt.Sprintf("keyword: failed to create fst builder: %v", err))
	}

	var (
		bitmaps []*roaring.Bitmap
		last    string
	)
	for i, p := range postings {
		if i == 0 || p.word != last {
			bitmaps = append(bitmaps, roaring.BitmapOf(p.doc))
			// Keys arrive strictly increasing thanks to the sort above.
			if err := builder.Insert([]byte(p.word), uint64(len(bitmaps)-1)); err != nil {
				panic(fmt.Sprintf("keyword: fst insert %q: %v", p.word, err))
			}
			last = p.word
			continue
		}
		bitmaps[len(bitmaps)-1].Add(p.doc)
	}
	if err := builder.Close(); err != nil {
		panic(fmt.Sprintf("keyword: failed to finish fst: %v", err))
	}

	fst, err := vellum.Load(buf.Bytes())
	if err != nil {
		panic(fmt.Sprintf("keyword: failed to load fst: %v", err))
	}
	for _, bm := range bitmaps {
		bm.RunOptimize()
	}
	return &WordIndex{fst: fst, bitmaps: bitmaps}
}

// Len returns the number of distinct normalized words.
func (w *WordIndex) Len() int {
	return len(w.bitmaps)
}

// Bitmap returns the documents of bucket id. The bitmap is shared and must not
// be modified. An unknown id means the index is corrupt and panics.
func (w *WordIndex) Bitmap(id uint64) *roaring.Bitmap {
	if id >= uint64(len(w.bitmaps)) {
		panic(fmt.Sprintf("keyword: bucket id %d out of range [0, %d)", id, len(w.bitmaps)))
	}
	return w.bitmaps[id]
}

// Lookup returns the documents containing the exact normalized word.
func (w *WordIndex) Lookup(word string) (*roaring.Bitmap, bool) {
	id, ok, err := w.fst.Get([]byte(word))
	if err != nil || !ok {
		return nil, false
	}
	return w.Bitmap(id), true
}

// Search streams every indexed word accepted by aut, in lexicographic order,
// together with its documents.
func (w *WordIndex) Search(aut vellum.Automaton, fn func(word string, docs *roaring.Bitmap)) {
	w.stream(w.fst.Search(aut, nil, nil))(fn)
}

// Terms streams every indexed word with its documents.
func (w *WordIndex) Terms(fn func(word string, docs *roaring.Bitmap)) {
	w.stream(w.fst.Iterator(nil, nil))(fn)
}

func (w *WordIndex) stream(itr *vellum.FSTIterator, err error) func(func(string, *roaring.Bitmap)) {
	return func(fn func(string, *roaring.Bitmap)) {
		for err == nil {
			key, id := itr.Current()
			fn(string(key), w.Bitmap(id))
			err = itr.Next()
		}
		if err != vellum.ErrIteratorDone {
			panic(fmt.Sprintf("keyword: fst iteration failed: %v", err))
		}
	}
}
