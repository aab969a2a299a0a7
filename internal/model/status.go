package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a task. The ordinal is what gets stored.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
)

var statusNames = [...]string{
	StatusPending:    "Pending",
	StatusInProgress: "InProgress",
	StatusCompleted:  "Completed",
}

// Statuses lists every member in ordinal order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

func (s Status) Valid() bool {
	return s >= StatusPending && int(s) < len(statusNames)
}

func (s Status) String() string {
	if !s.Valid() {
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
	return statusNames[s]
}

// ParseStatus accepts a member name (case-insensitive) or its ordinal.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty status")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		s := Status(n)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown status %d", n)
		}
		return s, nil
	}
	for i, name := range statusNames {
		if strings.EqualFold(name, raw) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", raw)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal status: invalid value %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var parsed Status
	var err error
	switch v := raw.(type) {
	case nil:
		*s = StatusPending
		return nil
	case string:
		parsed, err = ParseStatus(v)
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("unknown status %v", v)
		}
		parsed, err = ParseStatus(strconv.Itoa(int(v)))
	default:
		return fmt.Errorf("status must be a string or number")
	}
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
