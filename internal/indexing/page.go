package indexing

// DefaultPageLimit is the page size used when a caller leaves PageQuery.Limit
// at zero.
const DefaultPageLimit = 100

// Cursor holds the raw index key a paginated scan should resume after
// (exclusive). It is opaque to callers outside this package.
type Cursor struct {
	Offset string
}

// PageQuery bounds a single paginated scan.
type PageQuery struct {
	Limit  int
	Cursor *Cursor
}

// EffectiveLimit returns Limit, or DefaultPageLimit if Limit is zero or
// negative.
func (q PageQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultPageLimit
	}
	return q.Limit
}

// PageResult is the outcome of one paginated scan over arbitrary T.
type PageResult[T any] struct {
	Values []T
	Cursor *Cursor
}

// Scanner is implemented by a single iteration step of a paginated range
// scan: it returns the index key observed (the candidate next cursor) and
// whether this candidate was ultimately accepted into the page (passed
// dedup + post-filter). Shared by the transaction and address-book stores,
// whose query loops are otherwise identical except for which index family
// and post-filter they use.
type Scanner[T any] interface {
	// Next advances to the next raw index entry. Returns ok=false when the
	// underlying range is exhausted.
	Next() (indexKey string, ok bool, err error)
	// Resolve dereferences the current index entry to a value, or returns
	// keep=false if it should be skipped (duplicate primary, missing
	// primary, or filtered out).
	Resolve() (value T, keep bool, err error)
}

// Paginate drives a Scanner to produce one PageResult, honoring limit and
// setting Cursor to nil only when the scan read fewer raw entries than
// limit (the underlying range is known exhausted).
func Paginate[T any](s Scanner[T], limit int) (PageResult[T], error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	var (
		values  []T
		lastKey string
		read    int
	)
	for len(values) < limit {
		key, ok, err := s.Next()
		if err != nil {
			return PageResult[T]{}, err
		}
		if !ok {
			break
		}
		read++
		lastKey = key
		v, keep, err := s.Resolve()
		if err != nil {
			return PageResult[T]{}, err
		}
		if keep {
			values = append(values, v)
		}
	}
	if read < limit {
		return PageResult[T]{Values: values, Cursor: nil}, nil
	}
	return PageResult[T]{Values: values, Cursor: &Cursor{Offset: lastKey}}, nil
}
