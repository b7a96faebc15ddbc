package enums

type VerificationLevel string

const (
	VerificationUnverified VerificationLevel = "unverified"
	VerificationBasic      VerificationLevel = "basic"
	VerificationVerified   VerificationLevel = "verified"
	VerificationPremium    VerificationLevel = "premium"
)

func (l VerificationLevel) Valid() bool {
	return l.Rank() >= 0
}

// Rank orders levels: unverified < basic < verified < premium.
// Unknown levels rank -1.
func (l VerificationLevel) Rank() int {
	switch l {
	case VerificationUnverified:
		return 0
	case VerificationBasic:
		return 1
	case VerificationVerified:
		return 2
	case VerificationPremium:
		return 3
	default:
		return -1
	}
}
