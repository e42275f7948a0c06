package budget

// Budget is a snapshot of the language-model token budget for one period.
type Budget struct {
	tokensLimit     int64 // 0 = unlimited
	tokensRemaining int64 // -1 when unlimited
	isExhausted     bool
	resetsAt        int64 // unix millis, converted to RFC 3339 at transport layer
}

// New creates a Budget snapshot.
func New(limit, remaining int64, isExhausted bool, resetsAt int64) Budget {
	return Budget{
		tokensLimit:     limit,
		tokensRemaining: remaining,
		isExhausted:     isExhausted,
		resetsAt:        resetsAt,
	}
}

// TokensLimit returns the token cap.
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left.
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// Unlimited reports whether no cap is configured for the period.
func (b Budget) Unlimited() bool { return b.tokensLimit == 0 }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.isExhausted }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
