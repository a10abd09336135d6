package services

// Actor identifies who performs a mutation and from where. Every mutating
// service call takes one so audit entries never depend on ambient state.
type Actor struct {
	UserID    uint64
	IPAddress string
	UserAgent string
}
