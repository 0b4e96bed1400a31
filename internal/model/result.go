package model

// Result is the structured outcome of one command, rendered and posted by
// the excluded reply-formatting layer.
type Result struct {
	OK        bool
	Detail    string            // Human-readable explanation
	Portfolio *PortfolioSummary // Attached when useful to the caller
}

// Success returns a successful result.
func Success(detail string) Result {
	return Result{OK: true, Detail: detail}
}

// Failure returns a failed result.
func Failure(detail string) Result {
	return Result{OK: false, Detail: detail}
}

// WithPortfolio attaches a portfolio summary to the result.
func (r Result) WithPortfolio(p *PortfolioSummary) Result {
	r.Portfolio = p
	return r
}
