package tools

// Kind - закрытый набор известных инструментов. Все прочие имена дают KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindCloseSession
	KindGetCompanyProfile
	KindGetJobDetails
	KindGetPersonProfile
	KindGetRecommendedJobs
	KindSearchJobs
	KindSearchCompany
)

const (
	NameCloseSession       = "close_session"
	NameGetCompanyProfile  = "get_company_profile"
	NameGetJobDetails      = "get_job_details"
	NameGetPersonProfile   = "get_person_profile"
	NameGetRecommendedJobs = "get_recommended_jobs"
	NameSearchJobs         = "search_jobs"
	NameSearchCompany      = "search_company"
)

func ParseKind(name string) Kind {
	switch name {
	case NameCloseSession:
		return KindCloseSession
	case NameGetCompanyProfile:
		return KindGetCompanyProfile
	case NameGetJobDetails:
		return KindGetJobDetails
	case NameGetPersonProfile:
		return KindGetPersonProfile
	case NameGetRecommendedJobs:
		return KindGetRecommendedJobs
	case NameSearchJobs:
		return KindSearchJobs
	case NameSearchCompany:
		return KindSearchCompany
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindCloseSession:
		return NameCloseSession
	case KindGetCompanyProfile:
		return NameGetCompanyProfile
	case KindGetJobDetails:
		return NameGetJobDetails
	case KindGetPersonProfile:
		return NameGetPersonProfile
	case KindGetRecommendedJobs:
		return NameGetRecommendedJobs
	case KindSearchJobs:
		return NameSearchJobs
	case KindSearchCompany:
		return NameSearchCompany
	default:
		return "unknown"
	}
}
