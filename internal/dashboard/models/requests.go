package models

// WriteRequest is the transport-independent write command.
//
// IsCompanyWideUpdate and UpdateType are two legacy spellings of the same
// intent; the scope resolver collapses them into a single Scope.
type WriteRequest struct {
	UserID              string
	CompanyID           string
	ConfigData          ConfigData
	IsCompanyWideUpdate *bool
	UpdateType          *string
	ExpectedVersion     *int
	// Actor overrides UserID for audit attribution (e.g. an admin acting on
	// a user's behalf). Optional.
	Actor string
}
