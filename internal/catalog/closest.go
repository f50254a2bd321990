package catalog

import (
	"fmt"

	"librarian/internal/logging"
	"librarian/internal/schema"
)

// PerfectMatch is reported as Closest.Agreement when an entry agrees with
// every key of the query.
const PerfectMatch = -1

// Closest lists the best-scoring entries of a similarity query. The slices
// are index-aligned.
type Closest struct {
	Agreement int
	Labels    []string
	Params    []schema.Params
	Filenames []string
}

// ClosestParams scores every entry matching f by how many (name, value)
// pairs it shares with query and returns all entries with the top score.
// Query values are cast to declared kinds; undeclared names keep their
// natural kind. A perfect match that the index cannot retrieve is a
// *ConsistencyError.
func (c *Catalog) ClosestParams(query map[string]any, f Filter) (Closest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := castQuery(c.schema, query)
	if err != nil {
		return Closest{}, err
	}
	m, err := f.compile(c.schema)
	if err != nil {
		return Closest{}, err
	}

	best := Closest{}
	bestScore := -1
	perfect := false
	for i, e := range c.entries {
		if !m.match(e) {
			continue
		}
		score := 0
		for name, want := range q {
			if got, ok := e.Params[name]; ok && got.Equal(want) {
				score++
			}
		}
		isPerfect := len(q) > 0 && score == len(q)
		if isPerfect {
			if pos, ok := c.index[keyOf(e.Label, e.Params)]; !ok || pos != i {
				err := &ConsistencyError{Detail: fmt.Sprintf("perfect match %s [%s] is not retrievable by key", e.Label, e.Key())}
				logging.ErrorWithContext(c.logger, "closest match found an unindexed entry", "catalog_inconsistent",
					logging.String(logging.FieldLabel, e.Label),
					logging.String(logging.FieldFilename, e.Filename),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "run librarian verify and report the catalog file"),
				)
				return Closest{}, err
			}
		}

		switch {
		case perfect && !isPerfect:
			continue
		case isPerfect && !perfect, !perfect && score > bestScore:
			perfect = isPerfect
			bestScore = score
			best = Closest{}
		case score < bestScore:
			continue
		}
		best.Labels = append(best.Labels, e.Label)
		best.Params = append(best.Params, e.Params.Clone())
		best.Filenames = append(best.Filenames, e.Filename)
	}

	switch {
	case perfect:
		best.Agreement = PerfectMatch
	case bestScore > 0:
		best.Agreement = bestScore
	}
	return best, nil
}
