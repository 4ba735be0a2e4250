package domain

// BlockerStatus is the snapshot reported to the command layer.
type BlockerStatus struct {
	IsActive       bool     `json:"isActive"`
	IsAdmin        bool     `json:"isAdmin"`
	BlockedDomains []string `json:"blockedDomains"`
}

// VpnStatus mirrors the mobile VPN service report.
type VpnStatus struct {
	IsRunning     bool   `json:"isRunning"`
	BlockedCount  uint64 `json:"blockedCount"`
	DomainsLoaded uint64 `json:"domainsLoaded"`
}

// InstalledApp describes one launchable app reported by the mobile side.
type InstalledApp struct {
	PackageName string `json:"packageName"`
	AppName     string `json:"appName"`
	IconBase64  string `json:"iconBase64"`
}

// StreakData is the streak bookkeeping returned to the front end.
// CurrentDays is derived from StartDate on every call.
type StreakData struct {
	StartDate   *string `json:"startDate"`
	BestStreak  uint64  `json:"bestStreak"`
	TotalResets uint64  `json:"totalResets"`
	CurrentDays uint64  `json:"currentDays"`
}
