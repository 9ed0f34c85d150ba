package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/chat"
	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

// Scheduler handles periodic background jobs for the chat service
type Scheduler struct {
	cron     *cron.Cron
	Presence *chat.Presence
	Hub      *chat.Hub
	RoomDB   databases.RoomDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(presence *chat.Presence, hub *chat.Hub, roomDB databases.RoomDatabase) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		Presence: presence,
		Hub:      hub,
		RoomDB:   roomDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Rebroadcast viewer counts every minute so clients that missed a
	// presence event converge
	_, err := s.cron.AddFunc("* * * * *", s.broadcastViewerCounts)
	if err != nil {
		zap.S().Errorw("failed to register viewer count job", "error", err)
	}

	// Persist viewer-count fallbacks to the catalog every 5 minutes
	_, err = s.cron.AddFunc("*/5 * * * *", s.snapshotViewerCounts)
	if err != nil {
		zap.S().Errorw("failed to register viewer snapshot job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Room stats scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Room stats scheduler stopped")
}

// broadcastViewerCounts republishes the current viewer count for every
// occupied room
func (s *Scheduler) broadcastViewerCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	occupied := s.Presence.Occupied()
	for roomID, viewers := range occupied {
		err := s.Hub.Publish(ctx, roomID, chat.EventViewer, chat.ViewerPayload{RoomID: roomID, Viewers: viewers})
		if err != nil {
			zap.S().Errorw("failed to rebroadcast viewer count", "room", roomID, "error", err)
		}
	}

	if len(occupied) > 0 {
		zap.S().Debugw("Rebroadcast viewer counts", "rooms", len(occupied))
	}
}

// snapshotViewerCounts writes live viewer counts into the catalog as the
// fallback value served when this process is not the one hosting the room
func (s *Scheduler) snapshotViewerCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	occupied := s.Presence.Occupied()
	updated := 0
	for roomID, viewers := range occupied {
		matched, err := s.RoomDB.UpdateOne(ctx, bson.M{"id": roomID}, bson.M{"$set": bson.M{
			"viewers": viewers,
			"status":  models.RoomStatusLive,
		}})
		if err != nil {
			zap.S().Errorw("failed to snapshot viewer count", "room", roomID, "error", err)
			continue
		}
		if matched > 0 {
			updated++
		}
	}

	zap.S().Infow("Viewer snapshot complete", "occupied", len(occupied), "updated", updated)
}
