package models

import "time"

// Room statuses used by the catalog.
const (
	RoomStatusLive    = "live"
	RoomStatusOffline = "offline"
)

// Room is a catalog record for a live-stream viewing room. Viewers is
// decorated from the presence tracker at read time; the stored value is only
// a fallback for rooms with no live counter.
type Room struct {
	ID      string    `json:"id" bson:"id"`
	Name    string    `json:"name" bson:"name"`
	Viewers int       `json:"viewers" bson:"viewers"`
	Status  string    `json:"status" bson:"status"`
	Cover   string    `json:"cover" bson:"cover"`
	URL     string    `json:"url,omitempty" bson:"-"`
	Created time.Time `json:"created" bson:"created"`
}
