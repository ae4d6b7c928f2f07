package notification

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/olahol/melody"
)

// Session keys set on websocket sessions by the /ws handler.
const (
	SessionKeyUserID = "userID"
	SessionKeyRole   = "userRole"
)

// ScanEvent is pushed to staff dashboards after every scan.
type ScanEvent struct {
	Kind            string    `json:"kind"`
	Reason          string    `json:"reason,omitempty"`
	Message         string    `json:"message"`
	SubjectID       uint      `json:"subjectId,omitempty"`
	SubjectName     string    `json:"subjectName,omitempty"`
	PlanName        string    `json:"planName,omitempty"`
	RecordID        uint      `json:"recordId,omitempty"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	OperatorID      uint      `json:"operatorId"`
	At              time.Time `json:"at"`
}

type Publisher interface {
	Publish(event ScanEvent) error
}

// MelodyService broadcasts events to websocket sessions whose role is allowed.
type MelodyService struct {
	m     *melody.Melody
	roles map[int]bool
}

// NewMelodyService broadcasts to sessions carrying one of roles; with no roles
// every session receives events.
func NewMelodyService(m *melody.Melody, roles ...int) *MelodyService {
	allowed := make(map[int]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return &MelodyService{m: m, roles: allowed}
}

func (s *MelodyService) Publish(event ScanEvent) error {
	if s.m == nil {
		return fmt.Errorf("melody instance is nil")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode scan event: %w", err)
	}
	return s.m.BroadcastFilter(payload, s.accepts)
}

func (s *MelodyService) accepts(session *melody.Session) bool {
	role, ok := session.Get(SessionKeyRole)
	return s.allows(role, ok)
}

// allows reports whether a session whose role key holds role may receive events.
func (s *MelodyService) allows(role interface{}, present bool) bool {
	if len(s.roles) == 0 {
		return true
	}
	if !present {
		return false
	}
	r, ok := role.(int)
	return ok && s.roles[r]
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(ScanEvent) error { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []ScanEvent
}

func (r *Recorder) Publish(event ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []ScanEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ScanEvent(nil), r.events...)
}
