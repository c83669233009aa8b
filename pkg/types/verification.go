package types

// VerificationStatus is the outcome of re-checking one disclosure.
type VerificationStatus string

const (
	StatusVerified     VerificationStatus = "verified"
	StatusMismatch     VerificationStatus = "mismatch"
	StatusUndetermined VerificationStatus = "undetermined"
)

// VerificationResult records whether a disclosed span still means what its label says.
type VerificationResult struct {
	DisclosureID string             `json:"disclosure_id"`
	Field        string             `json:"field"`
	Status       VerificationStatus `json:"status"`
	Message      string             `json:"message,omitempty"`
}

// NewVerificationResult creates a result for d.
func NewVerificationResult(d *Disclosure, status VerificationStatus, message string) *VerificationResult {
	return &VerificationResult{
		DisclosureID: d.ID,
		Field:        d.Field,
		Status:       status,
		Message:      message,
	}
}
