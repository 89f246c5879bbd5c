package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rdevries/kantoor/internal/auth"
	"github.com/rdevries/kantoor/internal/chat"
	"github.com/rdevries/kantoor/internal/config"
	"github.com/rdevries/kantoor/internal/handlers"
	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/notify"
	"github.com/rdevries/kantoor/internal/push"
	"github.com/rdevries/kantoor/internal/realtime"
	"github.com/rdevries/kantoor/internal/storage"
	"github.com/rdevries/kantoor/internal/store/sqlstore"
	"github.com/rdevries/kantoor/internal/ws"
)

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal(err)
	}

	broker := realtime.NewBroker()
	store.SetEvents(broker)

	bucket, err := storage.NewBucket(cfg.Storage.Root, []byte(cfg.Storage.Secret))
	if err != nil {
		log.Fatal(err)
	}

	tokens := auth.NewTokenManager([]byte(cfg.Session.Secret), time.Duration(cfg.Session.TTL))
	directory := chat.NewDirectory(store)
	messages := chat.NewMessages(store, broker)
	notifySvc := notify.NewService(store)

	hub := ws.NewHub(store, broker, messages, notifySvc)
	go hub.Run()

	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		relay := push.NewRelay(store, broker, cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subject)
		relay.Start()
	} else {
		log.Println("push: VAPID keys not configured, web push disabled")
	}

	authHandler := &handlers.AuthHandler{Store: store, Tokens: tokens}
	chatHandler := &handlers.ChatHandler{Store: store, Directory: directory, Messages: messages, Bucket: bucket}
	notifHandler := &handlers.NotificationHandler{Store: store, Service: notifySvc}
	taskHandler := &handlers.TaskHandler{Store: store, Notify: notifySvc}
	docHandler := &handlers.DocumentHandler{Store: store, Bucket: bucket, Notify: notifySvc}
	settingsHandler := &handlers.SettingsHandler{Store: store}
	filesHandler := &handlers.FilesHandler{Bucket: bucket}

	r := mux.NewRouter()
	r.Use(middleware.Logging)

	// Public endpoints
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.HandleFunc("/files/{path:.*}", filesHandler.Serve).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Authenticated API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(tokens))

	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/me", authHandler.UpdateMe).Methods("PUT")
	api.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")
	api.HandleFunc("/team", authHandler.Team).Methods("GET")

	api.HandleFunc("/channels", chatHandler.ListChannels).Methods("GET")
	api.HandleFunc("/channels", chatHandler.CreateChannel).Methods("POST")
	api.HandleFunc("/channels/direct", chatHandler.OpenDirect).Methods("POST")
	api.HandleFunc("/channels/{id}/messages", chatHandler.GetMessages).Methods("GET")
	api.HandleFunc("/channels/{id}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/channels/{id}/attachments", chatHandler.UploadAttachment).Methods("POST")
	api.HandleFunc("/messages/{id}", chatHandler.EditMessage).Methods("PATCH")
	api.HandleFunc("/messages/{id}", chatHandler.DeleteMessage).Methods("DELETE")

	api.HandleFunc("/notifications", notifHandler.List).Methods("GET")
	api.HandleFunc("/notifications/unread", notifHandler.UnreadCount).Methods("GET")
	api.HandleFunc("/notifications/read-all", notifHandler.MarkAllRead).Methods("POST")
	api.HandleFunc("/notifications/{id}/read", notifHandler.MarkRead).Methods("POST")
	api.HandleFunc("/notifications/{id}", notifHandler.Delete).Methods("DELETE")
	api.HandleFunc("/push/subscribe", notifHandler.RegisterPush).Methods("POST")
	api.HandleFunc("/push/unsubscribe", notifHandler.UnregisterPush).Methods("POST")

	api.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")

	api.HandleFunc("/documents", docHandler.List).Methods("GET")
	api.HandleFunc("/documents", docHandler.Upload).Methods("POST")
	api.HandleFunc("/documents/{id}/download", docHandler.Download).Methods("GET")
	api.HandleFunc("/documents/{id}", docHandler.Delete).Methods("DELETE")
	api.HandleFunc("/clients", docHandler.ListClients).Methods("GET")
	api.HandleFunc("/clients", docHandler.CreateClient).Methods("POST")

	api.HandleFunc("/settings", settingsHandler.Get).Methods("GET")
	api.HandleFunc("/settings", settingsHandler.Update).Methods("PUT")

	// WebSocket endpoint
	wsRoute := r.PathPrefix("/ws").Subrouter()
	wsRoute.Use(middleware.Auth(tokens))
	wsRoute.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r, middleware.UserID(r))
	})

	log.Println("Starting server on", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, r))
}
