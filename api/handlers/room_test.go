package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/streamroom/streamroom-api/api/handlers"
	"github.com/streamroom/streamroom-api/chat"
	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/databases/mocks"
	"github.com/streamroom/streamroom-api/models"
)

type MockDatabaseHelper struct {
	mock.Mock
}

// Client provides a mock function.
func (_m *MockDatabaseHelper) Client() databases.ClientHelper {
	ret := _m.Called()

	var r0 databases.ClientHelper
	if rf, ok := ret.Get(0).(func() databases.ClientHelper); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.ClientHelper)
		}
	}

	return r0
}

// Collection provides a mock function.
func (_m *MockDatabaseHelper) Collection(name string) databases.CollectionHelper {
	ret := _m.Called(name)

	var r0 databases.CollectionHelper
	if rf, ok := ret.Get(0).(func(string) databases.CollectionHelper); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(databases.CollectionHelper)
		}
	}

	return r0
}

func TestRoom_RoomsHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Room)
		*arg = []models.Room{
			{ID: "room-1", Name: "Launch Party", Status: models.RoomStatusLive, Created: time.Unix(1700000000, 0).UTC()},
			{ID: "room-2", Name: "Quiet Corner", Status: models.RoomStatusOffline},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything).Return(cursorHelper)
	db.On("Collection", "rooms").Return(conn)

	presence := chat.NewPresence()
	presence.Increment("room-1")
	presence.Increment("room-1")

	u := handlers.Room{
		DB:            databases.NewRoomDatabase(db),
		Presence:      presence,
		StreamBaseURL: "https://cdn.example.com",
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RoomsHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/rooms", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var rooms []models.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rooms))
	require.Len(t, rooms, 2)
	assert.Equal(t, 2, rooms[0].Viewers)
	assert.Equal(t, "https://cdn.example.com/live/room-1.m3u8", rooms[0].URL)
	assert.Equal(t, 0, rooms[1].Viewers)
}

func TestRoom_RoomsHandlerFindError(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursorHelper := &mocks.CursorHelper{}

	cursorHelper.On("Decode", mock.Anything).Return(mongo.ErrNilCursor)
	conn.On("Find", mock.Anything, mock.Anything).Return(cursorHelper)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RoomsHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/rooms", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoom_RoomByIDHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Room)
		(*arg).ID = "room-1"
		(*arg).Name = "Launch Party"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	req := httptest.NewRequest("GET", "/api/v1/rooms/room-1", nil)
	req = mux.SetURLVars(req, map[string]string{"room_id": "room-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RoomByIDHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var room models.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "Launch Party", room.Name)
}

func TestRoom_RoomByIDHandlerNotFound(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	req := httptest.NewRequest("GET", "/api/v1/rooms/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"room_id": "nope"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RoomByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoom_CreateRoomHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("InsertOne", mock.Anything, mock.Anything).Return("inserted-id", nil)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	body := `{"id": "room-1", "name": "Launch Party"}`
	req := httptest.NewRequest("POST", "/api/v1/rooms", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateRoomHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var room models.Room
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &room))
	assert.Equal(t, "room-1", room.ID)
	assert.Equal(t, models.RoomStatusOffline, room.Status)
	assert.NotEmpty(t, room.Cover) // the default gradient
}

func TestRoom_CreateRoomHandlerDuplicate(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	// decode succeeding means a record with this ID already exists
	singleResultHelper.On("Decode", mock.Anything).Return(nil)
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	body := `{"id": "room-1", "name": "Launch Party"}`
	req := httptest.NewRequest("POST", "/api/v1/rooms", strings.NewReader(body))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateRoomHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRoom_CreateRoomHandlerMissingFields(t *testing.T) {
	u := handlers.Room{Presence: chat.NewPresence()}

	req := httptest.NewRequest("POST", "/api/v1/rooms", strings.NewReader(`{"id": "", "name": ""}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.CreateRoomHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRoom_UpdateRoomHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	req := httptest.NewRequest("PATCH", "/api/v1/rooms/room-1", strings.NewReader(`{"status": "live"}`))
	req = mux.SetURLVars(req, map[string]string{"room_id": "room-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateRoomHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoom_UpdateRoomHandlerInvalidStatus(t *testing.T) {
	u := handlers.Room{Presence: chat.NewPresence()}

	req := httptest.NewRequest("PATCH", "/api/v1/rooms/room-1", strings.NewReader(`{"status": "paused"}`))
	req = mux.SetURLVars(req, map[string]string{"room_id": "room-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateRoomHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRoom_UpdateRoomHandlerNotFound(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	req := httptest.NewRequest("PATCH", "/api/v1/rooms/nope", strings.NewReader(`{"status": "live"}`))
	req = mux.SetURLVars(req, map[string]string{"room_id": "nope"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateRoomHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoom_UpdateRoomCoverHandler(t *testing.T) {
	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	db.On("Collection", "rooms").Return(conn)

	u := handlers.Room{DB: databases.NewRoomDatabase(db), Presence: chat.NewPresence()}

	req := httptest.NewRequest("PATCH", "/api/v1/rooms/room-1/cover", strings.NewReader(`{"cover": "https://img.example.com/cover.png"}`))
	req = mux.SetURLVars(req, map[string]string{"room_id": "room-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateRoomCoverHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoom_UpdateRoomCoverHandlerEmptyCover(t *testing.T) {
	u := handlers.Room{Presence: chat.NewPresence()}

	req := httptest.NewRequest("PATCH", "/api/v1/rooms/room-1/cover", strings.NewReader(`{"cover": ""}`))
	req = mux.SetURLVars(req, map[string]string{"room_id": "room-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UpdateRoomCoverHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
