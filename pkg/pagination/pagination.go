package pagination

const (
	// DefaultLimit is the page size when the caller does not provide one.
	DefaultLimit = 50
	// MaxLimit caps how many rows any list endpoint can return per page.
	MaxLimit = 200
	// MaxOffset bounds how deep offset paging may reach. Rosters and
	// attendance logs are console-browsed; anything deeper belongs in an
	// export, not an API page.
	MaxOffset = 1_000_000
)

// Params holds normalized offset-paging inputs for repository queries.
type Params struct {
	Limit  int
	Offset int
}

// Normalize clamps the params into the allowed ranges.
func Normalize(p Params) Params {
	return Params{
		Limit:  NormalizeLimit(p.Limit),
		Offset: NormalizeOffset(p.Offset),
	}
}

// NormalizeLimit enforces the default and maximum page sizes.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizeOffset clamps the offset into [0, MaxOffset].
func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > MaxOffset {
		return MaxOffset
	}
	return offset
}
