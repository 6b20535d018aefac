package config

// BackendConfig locates the downstream helpdesk, commerce and telephony APIs.
type BackendConfig interface {
	GetHelpdeskBaseURL() string
	GetHelpdeskOrgID() string
	GetHelpdeskDepartmentID() string
	GetCommerceBaseURL() string
	GetTelephonyBaseURL() string
	GetTelephonyAPIKey() string
}

type Backends struct{}

var _ BackendConfig = Backends{}

func (Backends) GetHelpdeskBaseURL() string {
	return GetEnv("HELPDESK_BASE_URL", "https://desk.zoho.com")
}

func (Backends) GetHelpdeskOrgID() string {
	return GetEnv("HELPDESK_ORG_ID", "")
}

func (Backends) GetHelpdeskDepartmentID() string {
	return GetEnv("HELPDESK_DEPARTMENT_ID", "")
}

func (Backends) GetCommerceBaseURL() string {
	return GetEnv("COMMERCE_BASE_URL", "")
}

func (Backends) GetTelephonyBaseURL() string {
	return GetEnv("TELEPHONY_BASE_URL", "")
}

func (Backends) GetTelephonyAPIKey() string {
	return GetEnv("TELEPHONY_API_KEY", "")
}
