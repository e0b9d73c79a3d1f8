package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"cloud.google.com/go/firestore"
	"connectrpc.com/connect"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/verdantapp/backend/internal/ai"
	"github.com/verdantapp/backend/internal/auth"
	"github.com/verdantapp/backend/internal/avatar"
	"github.com/verdantapp/backend/internal/config"
	"github.com/verdantapp/backend/internal/insights"
	"github.com/verdantapp/backend/internal/ledger"
	"github.com/verdantapp/backend/internal/service"
	"github.com/verdantapp/backend/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.Local() {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	var storeImpl store.Store
	var firebaseAuth *auth.FirebaseAuth

	if cfg.UseMemoryStore {
		log.Info().Msg("using in-memory store for local development")
		storeImpl = store.NewMemoryStore()
		// Memory store always pairs with mock auth so local dev needs no
		// Firebase setup.
	} else {
		firestoreClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("create Firestore client")
		}
		defer firestoreClient.Close()
		storeImpl = store.NewFirestoreStore(firestoreClient)

		if cfg.SkipAuth {
			log.Warn().Msg("SKIP_AUTH enabled - mock authentication with Firestore (seeding/testing only)")
		} else {
			firebaseAuth, err = auth.NewFirebaseAuth(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("initialize Firebase Auth")
			}
		}
	}

	assistant, err := ai.NewClient(ctx, cfg.GeminiModel, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create AI client")
	}

	var avatars avatar.Store = avatar.InlineStore{}
	if cfg.AvatarBucket != "" {
		gcsStore, err := avatar.NewGCSStore(ctx, cfg.AvatarBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("create avatar store")
		}
		defer gcsStore.Close()
		avatars = gcsStore
	}

	reconciler := ledger.New(storeImpl, log)
	cadence := insights.New(storeImpl, assistant, log)
	svc := service.NewVerdantService(storeImpl, reconciler, cadence, assistant, avatars, log)

	var interceptors []connect.Interceptor
	interceptors = append(interceptors, auth.DebugAuthInterceptor(cfg.SkipAuth))
	if firebaseAuth != nil {
		interceptors = append(interceptors, auth.AuthInterceptor(firebaseAuth, log))
	} else {
		interceptors = append(interceptors, auth.LocalDevInterceptor(cfg.DevUserID))
	}

	path, handler := service.NewHandler(svc, connect.WithInterceptors(interceptors...))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	allowedOrigins := append([]string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"https://verdant.app",
		"https://www.verdant.app",
	}, cfg.AllowedOrigins...)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Content-Type",
			"User-Agent",
			"X-Debug-Impersonate-User",
		},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
