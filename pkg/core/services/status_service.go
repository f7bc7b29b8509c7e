package services

import (
	"sync/atomic"
	"time"
)

// Status is the payload of the health endpoint.
type Status struct {
	AllSystems       string `json:"all_systems"`
	ID               string `json:"id"`
	Timestamp        string `json:"timestamp"`
	OnlineSince      string `json:"online_since"`
	OnlineForSeconds int64  `json:"online_for_seconds"`
	APIVersion       string `json:"api_version"`
	APICounter       int64  `json:"api_counter"`
}

type StatusService struct {
	started time.Time
	version string
	hits    atomic.Int64
}

func NewStatusService(version string) *StatusService {
	return &StatusService{started: time.Now().UTC(), version: version}
}

// Touch counts one served request.
func (s *StatusService) Touch() {
	s.hits.Add(1)
}

func (s *StatusService) Status() Status {
	now := time.Now().UTC()
	return Status{
		AllSystems:       "nominal",
		ID:               "ecli-publisher",
		Timestamp:        now.Format(time.RFC3339),
		OnlineSince:      s.started.Format(time.RFC3339),
		OnlineForSeconds: int64(now.Sub(s.started).Seconds()),
		APIVersion:       s.version,
		APICounter:       s.hits.Load(),
	}
}
