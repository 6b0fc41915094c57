package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/reelfocus/reelfocus/internal/model"
)

// Wire payloads deliberately omit NeedsSync: the flag is local bookkeeping,
// never part of the remote record.

type goalPayload struct {
	Name        string    `json:"name"`
	Due         time.Time `json:"due"`
	Description *string   `json:"description,omitempty"`
}

type taskPayload struct {
	Name         string    `json:"name"`
	StartTime    time.Time `json:"startTime"`
	FocusMinutes int       `json:"focusMinutes"`
	Completed    bool      `json:"completed"`
}

type profilePayload struct {
	DisplayName      string            `json:"displayName"`
	Points           int               `json:"points"`
	WeeklyHours      model.WeeklyHours `json:"weeklyHours,omitempty"`
	BestFocusSeconds int               `json:"bestFocusSeconds"`
}

type itemPayload struct {
	ItemName   string `json:"itemName"`
	IsSelected bool   `json:"isSelected"`
}

func EncodeGoal(g *model.Goal) (Record, error) {
	return encode(model.KindGoal, g.ID, "", goalPayload{Name: g.Name, Due: g.Due.UTC(), Description: g.Description})
}

func DecodeGoal(rec Record) (*model.Goal, error) {
	var p goalPayload
	if err := decode(rec, model.KindGoal, &p); err != nil {
		return nil, err
	}
	return &model.Goal{ID: rec.ID, Name: p.Name, Due: p.Due.UTC(), Description: p.Description}, nil
}

func EncodeTask(tk *model.Task) (Record, error) {
	return encode(model.KindTask, tk.ID, tk.GoalID, taskPayload{
		Name:         tk.Name,
		StartTime:    tk.StartTime.UTC(),
		FocusMinutes: tk.FocusMinutes,
		Completed:    tk.Completed,
	})
}

func DecodeTask(rec Record) (*model.Task, error) {
	var p taskPayload
	if err := decode(rec, model.KindTask, &p); err != nil {
		return nil, err
	}
	return &model.Task{
		ID:           rec.ID,
		GoalID:       rec.ParentID,
		Name:         p.Name,
		StartTime:    p.StartTime.UTC(),
		FocusMinutes: p.FocusMinutes,
		Completed:    p.Completed,
	}, nil
}

func EncodeProfile(p *model.Profile) (Record, error) {
	return encode(model.KindProfile, p.UserID, "", profilePayload{
		DisplayName:      p.DisplayName,
		Points:           p.Points,
		WeeklyHours:      p.WeeklyHours,
		BestFocusSeconds: p.BestFocusSeconds,
	})
}

func DecodeProfile(rec Record) (*model.Profile, error) {
	var p profilePayload
	if err := decode(rec, model.KindProfile, &p); err != nil {
		return nil, err
	}
	return &model.Profile{
		UserID:           rec.ID,
		DisplayName:      p.DisplayName,
		Points:           p.Points,
		WeeklyHours:      p.WeeklyHours,
		BestFocusSeconds: p.BestFocusSeconds,
	}, nil
}

func EncodeItem(it *model.PurchasedItem) (Record, error) {
	return encode(model.KindItem, it.ID, "", itemPayload{ItemName: it.ItemName, IsSelected: it.IsSelected})
}

func DecodeItem(rec Record) (*model.PurchasedItem, error) {
	var p itemPayload
	if err := decode(rec, model.KindItem, &p); err != nil {
		return nil, err
	}
	return &model.PurchasedItem{ID: rec.ID, ItemName: p.ItemName, IsSelected: p.IsSelected}, nil
}

func encode(kind model.Kind, id, parentID string, payload any) (Record, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Record{}, err
	}
	return Record{Kind: kind, ID: id, ParentID: parentID, Payload: b}, nil
}

func decode(rec Record, want model.Kind, out any) error {
	if rec.Kind != want {
		return fmt.Errorf("decode %s record: got kind %q", want, rec.Kind)
	}
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", want, err)
	}
	return nil
}
