package model

import "time"

// Kind identifies an entity family. The kind doubles as the record-type
// name on the remote store and as the namespace in the pending-deletion
// registry.
type Kind string

const (
	KindProfile Kind = "profile"
	KindGoal    Kind = "goal"
	KindTask    Kind = "task"
	KindItem    Kind = "item"
)

// Day is a lowercase weekday name used as a JSON-friendly map key.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// TimeSlot is a coarse block of the day a user marks as productive.
type TimeSlot string

const (
	SlotEarlyMorning TimeSlot = "early_morning"
	SlotMorning      TimeSlot = "morning"
	SlotAfternoon    TimeSlot = "afternoon"
	SlotEvening      TimeSlot = "evening"
	SlotNight        TimeSlot = "night"
)

// WeeklyHours maps each day to the slots the user flagged as productive.
type WeeklyHours map[Day][]TimeSlot

// Profile is the single per-user record: display name, point balance and
// focus statistics. Exactly one profile exists per signed-in user; it is
// created lazily on first run if absent both locally and remotely.
type Profile struct {
	UserID           string      `json:"userId"`
	DisplayName      string      `json:"displayName"`
	Points           int         `json:"points"`
	WeeklyHours      WeeklyHours `json:"weeklyHours,omitempty"`
	BestFocusSeconds int         `json:"bestFocusSeconds"`
	NeedsSync        bool        `json:"needsSync"`
}

// Goal is a user objective with a due time. A goal owns zero or more tasks.
type Goal struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Due         time.Time `json:"due"`
	Description *string   `json:"description,omitempty"`
	NeedsSync   bool      `json:"needsSync"`
}

// Task is a scheduled focus session belonging to a goal. The goal reference
// is a back reference only: a task whose goal is gone is orphaned and is
// never pushed to the remote.
type Task struct {
	ID           string    `json:"id"`
	GoalID       string    `json:"goalId"`
	Name         string    `json:"name"`
	StartTime    time.Time `json:"startTime"`
	FocusMinutes int       `json:"focusMinutes"`
	Completed    bool      `json:"completed"`
	NeedsSync    bool      `json:"needsSync"`
}

// PurchasedItem records a cosmetic bought from the catalog. At most one item
// is selected at a time; the item sync manager enforces that, not the store.
type PurchasedItem struct {
	ID         string `json:"id"`
	ItemName   string `json:"itemName"`
	IsSelected bool   `json:"isSelected"`
	NeedsSync  bool   `json:"needsSync"`
}
