package backend

// Status reports the render pipeline's live connectivity to its
// collaborator services, used by the admin health endpoint.
type Status struct {
	DBConnected   bool
	PostConnected bool
}

// CheckStatus pings the page database connection and reports whether a
// POST-runner was configured at all (the P-POST protocol has no dedicated
// ping message, so "configured" is the best available signal short of
// submitting a real form).
func (s *Service) CheckStatus() Status {
	return Status{
		DBConnected:   s.db.Ping() == nil,
		PostConnected: s.post != nil,
	}
}
