package enums

type ReportType string

const (
	ReportTypeHarassment           ReportType = "harassment"
	ReportTypeFakeProfile          ReportType = "fake-profile"
	ReportTypeInappropriateContent ReportType = "inappropriate-content"
	ReportTypeScam                 ReportType = "scam"
	ReportTypeOther                ReportType = "other"
)

func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeHarassment,
		ReportTypeFakeProfile,
		ReportTypeInappropriateContent,
		ReportTypeScam,
		ReportTypeOther:
		return true
	default:
		return false
	}
}
