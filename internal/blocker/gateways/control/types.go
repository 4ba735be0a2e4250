package control

// Request and response bodies of the control API.

type BlocklistRequest struct {
	Domains []string `json:"domains"`
}

type AdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

type ExtendLockRequest struct {
	Hours uint64 `json:"hours"`
}

type LockResponse struct {
	Expiry string `json:"expiry"`
	Locked bool   `json:"locked"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
