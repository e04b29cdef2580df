package domain

// CreditStatus is the result of a pre-generation credit check.
type CreditStatus struct {
	HasCredits    bool `json:"has_credits"`
	Balance       int  `json:"balance"`
	CreditsNeeded int  `json:"credits_needed"`
}
