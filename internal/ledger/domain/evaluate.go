package domain

// Tariff is the internal credit price applied to payable pages.
type Tariff struct {
	CostPerPage CreditAmount
}

// Breakdown is the result of evaluating a page request against a
// ledger snapshot. It is returned on both acceptance and rejection so
// callers can report remaining-quota detail.
type Breakdown struct {
	PagesRequested     int          `json:"pagesRequested"`
	FreePagesRemaining int          `json:"freePagesRemaining"`
	FreePagesUsed      int          `json:"freePagesUsed"`
	PayablePages       int          `json:"payablePages"`
	RequiredCredits    CreditAmount `json:"requiredCredits"`
	Eligible           bool         `json:"eligible"`
}

// Evaluate decides whether a page request can be covered by the given
// snapshot. Free pages are consumed before paid credits; this function
// is the single place that ordering lives.
//
// Evaluate is pure and advisory. The charge transaction re-runs it on
// freshly read balances before mutating anything.
func Evaluate(pagesRequested int, freePagesRemaining int, creditBalance CreditAmount, tariff Tariff) Breakdown {
	freeUsed := pagesRequested
	if freeUsed > freePagesRemaining {
		freeUsed = freePagesRemaining
	}
	payable := pagesRequested - freeUsed
	required := CreditAmount(payable) * tariff.CostPerPage

	return Breakdown{
		PagesRequested:     pagesRequested,
		FreePagesRemaining: freePagesRemaining,
		FreePagesUsed:      freeUsed,
		PayablePages:       payable,
		RequiredCredits:    required,
		Eligible:           creditBalance >= required,
	}
}
