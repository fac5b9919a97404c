package service

const (
	// DefaultPerPage is the page size used when the caller does not set one
	DefaultPerPage = 15

	// MaxPerPage caps the page size a caller may request
	MaxPerPage = 100
)
