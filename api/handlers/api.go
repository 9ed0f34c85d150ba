package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/chat"
	"github.com/streamroom/streamroom-api/config"
	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

// App stores the router, store connections and the chat core, so it can be
// reused
type App struct {
	Router      *mux.Router
	Config      config.Config
	Coordinator *chat.Coordinator

	auth     api.Auth
	dbHelper databases.DatabaseHelper
	store    databases.ChatStore
	fabric   chat.Fabric
	presence *chat.Presence
	hub      *chat.Hub
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	history := databases.NewHistoryDatabase(a.store)
	moderation := databases.NewModerationDatabase(a.store)
	console := chat.NewConsole(history, moderation, a.hub)

	auth := AuthHandler{Auth: a.auth, AdminUsers: a.Config.AdminUsers}
	room := Room{DB: databases.NewRoomDatabase(a.dbHelper), Presence: a.presence, StreamBaseURL: a.Config.StreamBaseUrl}
	mod := Moderation{Console: console}
	prefs := UserPreferences{DB: databases.NewPreferencesDatabase(a.store)}
	ws := WebSocket{Coordinator: a.Coordinator, Auth: a.auth}

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.HandleFunc("/ws", ws.ServeHTTP)

	// the websocket endpoint stays outside the timeout: connections are
	// long-lived by design
	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/login", http.HandlerFunc(auth.LoginHandler)).Methods("POST")

	apiCreate.Handle("/rooms", http.HandlerFunc(room.RoomsHandler)).Methods("GET")
	apiCreate.Handle("/rooms", a.auth.Middleware(http.HandlerFunc(room.CreateRoomHandler))).Methods("POST")
	apiCreate.Handle("/rooms/{room_id}", http.HandlerFunc(room.RoomByIDHandler)).Methods("GET")
	apiCreate.Handle("/rooms/{room_id}", a.auth.Middleware(http.HandlerFunc(room.UpdateRoomHandler))).Methods("PATCH")
	apiCreate.Handle("/rooms/{room_id}/cover", a.auth.Middleware(http.HandlerFunc(room.UpdateRoomCoverHandler))).Methods("PATCH")

	apiCreate.Handle("/users/me", a.auth.Middleware(http.HandlerFunc(prefs.GetMeHandler))).Methods("GET")
	apiCreate.Handle("/users/me", a.auth.Middleware(http.HandlerFunc(prefs.UpdateMeHandler))).Methods("PATCH")

	apiCreate.Handle("/moderation/queue", a.auth.AdminOnly(http.HandlerFunc(mod.QueueHandler))).Methods("GET")
	apiCreate.Handle("/moderation/action", a.auth.AdminOnly(http.HandlerFunc(mod.ActionHandler))).Methods("POST")
	apiCreate.Handle("/moderation/filter", a.auth.AdminOnly(http.HandlerFunc(mod.GetFilterHandler))).Methods("GET")
	apiCreate.Handle("/moderation/filter", a.auth.AdminOnly(http.HandlerFunc(mod.SetFilterHandler))).Methods("PUT")

	return r
}

// Initialize is invoked by main to connect with the databases and create the
// router and chat core
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("streamroom-api has connected to the room catalog database")

	redisClient, err := databases.NewRedisClient(&a.Config)
	if err != nil {
		zap.S().With(err).Error("failed to create redis client")
		return err
	}
	a.store = databases.NewRedisStore(redisClient)
	a.fabric = databases.NewRedisFabric(redisClient)

	return a.initializeCore(context.Background())
}

// InitializeForTesting wires the app over injected store and fabric
// implementations so handler tests can run without Redis or Mongo.
func (a *App) InitializeForTesting(dbHelper databases.DatabaseHelper, store databases.ChatStore, fabric chat.Fabric) error {
	a.dbHelper = dbHelper
	a.store = store
	a.fabric = fabric
	return a.initializeCore(context.Background())
}

func (a *App) initializeCore(ctx context.Context) error {
	a.auth = api.Auth{Secret: []byte(a.Config.JWTSecret)}
	a.presence = chat.NewPresence()

	hub, err := chat.NewHub(ctx, a.fabric)
	if err != nil {
		zap.S().With(err).Error("failed to subscribe to delivery fabric")
		return err
	}
	a.hub = hub

	history := databases.NewHistoryDatabase(a.store)
	moderation := databases.NewModerationDatabase(a.store)
	pipeline := chat.NewPipeline(history, moderation, a.hub)
	a.Coordinator = chat.NewCoordinator(a.hub, a.presence, pipeline, history, moderation)

	a.initializeRoutes()
	return nil
}

// DB exposes the catalog database connection for the stats scheduler
func (a *App) DB() databases.DatabaseHelper {
	return a.dbHelper
}

// Presence exposes the viewer-count tracker for the stats scheduler
func (a *App) Presence() *chat.Presence {
	return a.presence
}

// Hub exposes the broadcaster for the stats scheduler
func (a *App) Hub() *chat.Hub {
	return a.hub
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
