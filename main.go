package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"join-project/backend/config"
	"join-project/backend/handlers"
	"join-project/backend/logging"
	"join-project/backend/middleware"
	"join-project/backend/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// enableCORS echoes the configured frontend origin. Cookies only travel on
// credentialed requests, and browsers refuse Allow-Credentials together
// with a wildcard origin, so the origin must be spelled out.
func enableCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleBoth registers a handler for the path with and without the trailing
// slash, so both spellings of every endpoint work.
func handleBoth(r *mux.Router, path string, handler http.HandlerFunc, methods ...string) {
	r.HandleFunc(path, handler).Methods(methods...)
	r.HandleFunc(path+"/", handler).Methods(methods...)
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Join backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_SKIPPED, Description: No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.MongoURI)

	db := client.Database(cfg.MongoDBName)

	commonPasswords := map[string]bool{}
	if cfg.PasswordBlacklistPath != "" {
		commonPasswords, err = services.LoadCommonPasswords(cfg.PasswordBlacklistPath)
		if err != nil {
			logging.Logger.Fatalf("Event ID: PASSWORD_LIST_LOAD_FAILED, Description: Could not load common password list: %v", err)
		}
	}

	blacklistBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "TokenBlacklistCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	blacklist := services.NewMongoTokenBlacklist(db.Collection("revoked_tokens"))
	userService := services.NewUserService(db, commonPasswords)
	taskService := services.NewTaskService(db)
	subtaskService := services.NewSubtaskService(db)
	authService := services.NewAuthService(userService, blacklist, blacklistBreaker, cfg)

	for name, ensure := range map[string]func(context.Context) error{
		"users":    userService.EnsureIndexes,
		"subtasks": taskService.EnsureIndexes,
		"tokens":   blacklist.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logging.Logger.Fatalf("Event ID: INDEX_CREATE_FAILED, Description: Failed to create %s indexes: %v", name, err)
		}
	}

	authHandler := handlers.NewAuthHandler(authService, userService, cfg.CookieEnv)
	taskHandler := handlers.NewTaskHandler(taskService)
	subtaskHandler := handlers.NewSubtaskHandler(subtaskService)
	profileHandler := handlers.NewProfileHandler(userService)

	throttle := middleware.NewWriteThrottle(cfg.TaskWriteLimit, cfg.TaskWriteWindow)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.CookieAuth([]byte(cfg.JWTSecret)))

	handleBoth(api, "/register", authHandler.Register, http.MethodPost)
	handleBoth(api, "/login", authHandler.Login, http.MethodPost)
	handleBoth(api, "/refresh", authHandler.Refresh, http.MethodPost)
	handleBoth(api, "/logout", authHandler.Logout, http.MethodPost)

	tasks := api.PathPrefix("/tasks").Subrouter()
	tasks.Use(middleware.RequireAuth, throttle.Middleware)
	handleBoth(tasks, "", taskHandler.GetAllTasks, http.MethodGet)
	handleBoth(tasks, "", taskHandler.CreateTask, http.MethodPost)
	handleBoth(tasks, "/{id}", taskHandler.GetTask, http.MethodGet)
	handleBoth(tasks, "/{id}", taskHandler.UpdateTask, http.MethodPut, http.MethodPatch)
	handleBoth(tasks, "/{id}", taskHandler.DeleteTask, http.MethodDelete)

	subtasks := api.PathPrefix("/subtask").Subrouter()
	subtasks.Use(middleware.RequireAuth, throttle.Middleware)
	handleBoth(subtasks, "", subtaskHandler.GetAllSubtasks, http.MethodGet)
	handleBoth(subtasks, "", subtaskHandler.CreateSubtask, http.MethodPost)
	handleBoth(subtasks, "/{id}", subtaskHandler.GetSubtask, http.MethodGet)
	handleBoth(subtasks, "/{id}", subtaskHandler.UpdateSubtask, http.MethodPut, http.MethodPatch)
	handleBoth(subtasks, "/{id}", subtaskHandler.DeleteSubtask, http.MethodDelete)

	profiles := api.PathPrefix("/profiles").Subrouter()
	profiles.Use(middleware.RequireAuth)
	handleBoth(profiles, "", profileHandler.GetAllProfiles, http.MethodGet)
	handleBoth(profiles, "", profileHandler.CreateProfile, http.MethodPost)
	handleBoth(profiles, "/{id}", profileHandler.GetProfile, http.MethodGet)
	handleBoth(profiles, "/{id}", profileHandler.UpdateProfile, http.MethodPut, http.MethodPatch)
	handleBoth(profiles, "/{id}", profileHandler.DeleteProfile, http.MethodDelete)

	corsRouter := enableCORS(cfg.CORSOrigin, r)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
