// Package deck implements navigation over the active question sequence.
package deck

import (
	"math/rand"
	"sort"
	"time"

	"conversation-deck-service/internal/domain"
)

// Deck is the ordered list of active questions plus a cursor into it.
// It is not safe for concurrent use.
type Deck struct {
	catalog  []domain.Question
	items    []domain.Question
	cursor   int
	shuffled bool
	active   map[string]struct{}
	rnd      *rand.Rand
}

// New builds a deck over the full catalog in catalog order.
func New(catalog []domain.Question) *Deck {
	return NewWithRand(catalog, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand is New with an explicit random source, for deterministic tests.
func NewWithRand(catalog []domain.Question, rnd *rand.Rand) *Deck {
	src := make([]domain.Question, len(catalog))
	copy(src, catalog)
	d := &Deck{
		catalog: src,
		active:  map[string]struct{}{},
		rnd:     rnd,
	}
	d.items = d.filtered()
	return d
}

// Advance moves to the next question, wrapping to the first.
func (d *Deck) Advance() error {
	if len(d.items) == 0 {
		return domain.ErrEmptyDeck
	}
	d.cursor = (d.cursor + 1) % len(d.items)
	return nil
}

// Retreat moves to the previous question, wrapping to the last.
func (d *Deck) Retreat() error {
	if len(d.items) == 0 {
		return domain.ErrEmptyDeck
	}
	if d.cursor == 0 {
		d.cursor = len(d.items) - 1
	} else {
		d.cursor--
	}
	return nil
}

// Shuffle draws a fresh permutation of the current items.
func (d *Deck) Shuffle() {
	d.permute(d.items)
	d.cursor = 0
	d.shuffled = true
}

// Reset restores catalog order for the active filter.
func (d *Deck) Reset() {
	d.items = d.filtered()
	d.cursor = 0
	d.shuffled = false
}

// ApplyFilter restricts the deck to the given categories and shuffles it.
// An empty set selects the whole catalog.
func (d *Deck) ApplyFilter(categories []string) {
	d.active = make(map[string]struct{}, len(categories))
	for _, c := range categories {
		d.active[c] = struct{}{}
	}
	d.items = d.filtered()
	d.permute(d.items)
	d.cursor = 0
	d.shuffled = true
}

// GoTo moves the cursor to index.
func (d *Deck) GoTo(index int) error {
	if index < 0 || index >= len(d.items) {
		return domain.ErrIndexOutOfRange
	}
	d.cursor = index
	return nil
}

// Current returns the question under the cursor; false when the deck is empty.
func (d *Deck) Current() (domain.Question, bool) {
	if len(d.items) == 0 {
		return domain.Question{}, false
	}
	return d.items[d.cursor], true
}

func (d *Deck) Len() int       { return len(d.items) }
func (d *Deck) Cursor() int    { return d.cursor }
func (d *Deck) Shuffled() bool { return d.shuffled }

// Items returns a copy of the active sequence.
func (d *Deck) Items() []domain.Question {
	out := make([]domain.Question, len(d.items))
	copy(out, d.items)
	return out
}

// ActiveCategories returns the applied filter, sorted.
func (d *Deck) ActiveCategories() []string {
	out := make([]string, 0, len(d.active))
	for c := range d.active {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// State snapshots the deck for clients.
func (d *Deck) State() domain.DeckState {
	st := domain.DeckState{
		Position:         d.cursor,
		Total:            len(d.items),
		Shuffled:         d.shuffled,
		ActiveCategories: d.ActiveCategories(),
	}
	if q, ok := d.Current(); ok {
		st.Question = &q
	}
	return st
}

func (d *Deck) filtered() []domain.Question {
	out := make([]domain.Question, 0, len(d.catalog))
	for _, q := range d.catalog {
		if len(d.active) == 0 {
			out = append(out, q)
			continue
		}
		if _, ok := d.active[q.Category]; ok {
			out = append(out, q)
		}
	}
	return out
}

// permute shuffles in place; rand.Shuffle is a Fisher-Yates shuffle.
func (d *Deck) permute(items []domain.Question) {
	d.rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
