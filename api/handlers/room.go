package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/chat"
	"github.com/streamroom/streamroom-api/config"
	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

// defaultCover is applied when a room is created without one
const defaultCover = "linear-gradient(135deg, #667eea 0%, #764ba2 100%)"

// Room exported for testing purposes
type Room struct {
	DB            databases.RoomDatabase
	Presence      *chat.Presence
	StreamBaseURL string
}

// decorate fills the live viewer count and the playback URL, which are never
// stored in the catalog
func (rm Room) decorate(room *models.Room) {
	if viewers := rm.Presence.Current(room.ID); viewers > 0 {
		room.Viewers = viewers
	}
	if rm.StreamBaseURL != "" {
		room.URL = fmt.Sprintf("%s/live/%s.m3u8", rm.StreamBaseURL, room.ID)
	}
}

// RoomsHandler returns the full room catalog, decorated with live viewer
// counts and playback URLs
func (rm Room) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	dbResp, err := rm.DB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get rooms", http.StatusNotFound, w, err)
		return
	}
	// Because the frontend requires that we return an array [] even if
	// no results are found, we use this to trigger that
	if dbResp == nil {
		dbResp = []models.Room{}
	}
	for i := range dbResp {
		rm.decorate(&dbResp[i])
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RoomByIDHandler returns one catalog record by its room ID
func (rm Room) RoomByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	roomID := mux.Vars(r)["room_id"]

	dbResp, err := rm.DB.FindOne(ctx, bson.M{"id": roomID})
	if err != nil {
		config.ErrorStatus("failed to get room by ID", http.StatusNotFound, w, err)
		return
	}
	rm.decorate(dbResp)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateRoomRequest is the creation payload; ID and Name are required
type CreateRoomRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cover string `json:"cover"`
}

// CreateRoomHandler adds a room to the catalog. Duplicate IDs are rejected
// with a conflict.
func (rm Room) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode room", http.StatusBadRequest, w, err)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		config.ErrorStatus("room id and name must not be empty", http.StatusBadRequest, w, nil)
		return
	}

	if _, err := rm.DB.FindOne(ctx, bson.M{"id": req.ID}); err == nil {
		config.ErrorStatus("room already exists", http.StatusConflict, w, nil)
		return
	} else if err != mongo.ErrNoDocuments {
		config.ErrorStatus("failed to check for existing room", http.StatusInternalServerError, w, err)
		return
	}

	cover := req.Cover
	if cover == "" {
		cover = defaultCover
	}
	room := models.Room{
		ID:      req.ID,
		Name:    req.Name,
		Status:  models.RoomStatusOffline,
		Cover:   cover,
		Created: time.Now().UTC(),
	}
	if err := rm.DB.InsertOne(ctx, room); err != nil {
		config.ErrorStatus("failed to insert room", http.StatusInternalServerError, w, err)
		return
	}
	rm.decorate(&room)

	b, err := json.Marshal(room)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateRoomRequest is the patch payload; zero fields are left unchanged
type UpdateRoomRequest struct {
	Name    *string `json:"name"`
	Status  *string `json:"status"`
	Viewers *int    `json:"viewers"`
}

// UpdateRoomHandler patches a catalog record's name, status or stored viewer
// fallback
func (rm Room) UpdateRoomHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	roomID := mux.Vars(r)["room_id"]

	var req UpdateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode room update", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Status != nil {
		if *req.Status != models.RoomStatusLive && *req.Status != models.RoomStatusOffline {
			config.ErrorStatus("invalid room status", http.StatusBadRequest, w, nil)
			return
		}
		set["status"] = *req.Status
	}
	if req.Viewers != nil {
		set["viewers"] = *req.Viewers
	}
	if len(set) == 0 {
		config.ErrorStatus("no fields to update", http.StatusBadRequest, w, nil)
		return
	}

	matched, err := rm.DB.UpdateOne(ctx, bson.M{"id": roomID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update room", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("room not found", http.StatusNotFound, w, nil)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "updated"}`))
}

// UpdateRoomCoverRequest carries the replacement cover value
type UpdateRoomCoverRequest struct {
	Cover string `json:"cover"`
}

// UpdateRoomCoverHandler replaces a room's cover image or gradient
func (rm Room) UpdateRoomCoverHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	roomID := mux.Vars(r)["room_id"]

	var req UpdateRoomCoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode cover update", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(req.Cover) == "" {
		config.ErrorStatus("cover must not be empty", http.StatusBadRequest, w, nil)
		return
	}

	matched, err := rm.DB.UpdateOne(ctx, bson.M{"id": roomID}, bson.M{"$set": bson.M{"cover": req.Cover}})
	if err != nil {
		config.ErrorStatus("failed to update room cover", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("room not found", http.StatusNotFound, w, nil)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "updated"}`))
}
