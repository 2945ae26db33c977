package models

import "time"

// Session is the explicit per-request actor context passed into service
// operations. It replaces any module-level "current user" state.
type Session struct {
	UserID   int64                  `json:"user_id"`
	Email    string                 `json:"email"`
	IsAdmin  bool                   `json:"is_admin"`
	IssuedAt time.Time              `json:"issued_at"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

func (s *Session) GetString(key string) string {
	if s.Data == nil {
		return ""
	}
	val, ok := s.Data[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func (s *Session) GetInt64(key string) int64 {
	if s.Data == nil {
		return 0
	}
	val, ok := s.Data[key]
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *Session) GetTime(key string) time.Time {
	if s.Data == nil {
		return time.Time{}
	}
	val, ok := s.Data[key]
	if !ok {
		return time.Time{}
	}
	switch v := val.(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}
