package models

import "time"

// PinRecord is one row of the pin lifecycle table. A record exists for every
// CID under management; the store is the single source of truth for when a
// pin was requested, when it expires and whether the content has been fully
// written to local storage.
type PinRecord struct {
	Cid        string    `json:"cid"`
	PinTime    time.Time `json:"pin_time"`
	ExpireTime time.Time `json:"expire_time"`
	Downloaded bool      `json:"downloaded"`
}

func (r *PinRecord) Expired(now time.Time) bool {
	return r.ExpireTime.Before(now)
}

// HoursLeft returns the remaining pin lifetime in hours, floored at zero.
func (r *PinRecord) HoursLeft(now time.Time) float64 {
	left := r.ExpireTime.Sub(now).Hours()
	if left < 0 {
		return 0
	}
	return left
}

// PinStatus is the reporting view of a pin: either a tracked PinRecord or a
// pin that exists on the storage gateway without a matching row (pinned
// manually, outside the bot).
type PinStatus struct {
	Cid        string     `json:"cid"`
	PinTime    *time.Time `json:"pin_time,omitempty"`
	ExpireTime *time.Time `json:"expire_time,omitempty"`
	HoursLeft  float64    `json:"hours_left"`
	Downloaded bool       `json:"downloaded"`
	Tracked    bool       `json:"tracked"`
}
