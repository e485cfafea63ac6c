// Package admin provides the admin dashboard API: server statistics, user
// management, the contact inbox, and the session registry view. Every route
// requires an admin bearer token.
package admin

import "time"

// Stats is the dashboard summary served by GET /api/admin/stats.
type Stats struct {
	Users        int         `json:"users"`
	Contacts     int         `json:"contacts"`
	Unread       int         `json:"unread"`
	TotalLogs    int         `json:"totalLogs"`
	RecentErrors int         `json:"recentErrors"`
	Uptime       float64     `json:"uptime"`
	Memory       MemoryStats `json:"memory"`
	Platform     string      `json:"platform"`
	GoVersion    string      `json:"goVersion"`
	Hostname     string      `json:"hostname"`
	Goroutines   int         `json:"goroutines"`
	GeneratedAt  time.Time   `json:"generatedAt"`
}

// MemoryStats is the subset of runtime.MemStats shown on the dashboard.
type MemoryStats struct {
	Alloc     uint64 `json:"alloc"`
	Sys       uint64 `json:"sys"`
	HeapInuse uint64 `json:"heapInuse"`
	NumGC     uint32 `json:"numGC"`
}

// UpdateUserRequest is the body of PATCH /api/admin/users/:id. Absent fields
// are left unchanged.
type UpdateUserRequest struct {
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// recentErrorWindow is how far back the dashboard counts ERROR entries.
const recentErrorWindow = time.Hour

// sessionListLimit caps the session registry view.
const sessionListLimit = 100
