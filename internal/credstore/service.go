package credstore

// Service identifies which provider a Credential authenticates against,
// ported from original_source/common/src/auth/tui.rs's CredentialService.
type Service int

const (
	ServiceNone Service = iota
	ServiceICloud
	ServiceGoogle
)

// String matches the original Display impl (used verbatim as the AAD
// prefix in Credential.Lock/Unlock).
func (s Service) String() string {
	switch s {
	case ServiceICloud:
		return "ICloud"
	case ServiceGoogle:
		return "Google"
	default:
		return ""
	}
}
