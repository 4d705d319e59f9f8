package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/slakttrad/slakttradbackend/config"
	"github.com/slakttrad/slakttradbackend/database"
	"github.com/slakttrad/slakttradbackend/handlers"
	"github.com/slakttrad/slakttradbackend/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	userRepo := repository.NewGormUserRepository(db)
	treeRepo := repository.NewTreeRepository(db)
	personRepo := repository.NewPersonRepository(db)
	relationRepo := repository.NewRelationRepository(db)

	authHandler := handlers.NewAuthHandler(userRepo, cfg)
	treeHandler := handlers.NewTreeHandler(treeRepo)
	personHandler := handlers.NewPersonHandler(treeRepo, personRepo)
	relationHandler := handlers.NewRelationHandler(treeRepo, personRepo, relationRepo)
	importHandler := handlers.NewImportHandler(treeRepo, personRepo, relationRepo)
	exportHandler := handlers.NewExportHandler(treeRepo, personRepo, relationRepo)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(handlers.AuthMiddleware(userRepo, cfg.JWTSecret))

		r.Get("/me", authHandler.CurrentUser)
		r.Get("/relation-types", relationHandler.ListRelationTypes)

		r.Route("/trees", func(r chi.Router) {
			r.Get("/", treeHandler.ListTrees)
			r.Post("/", treeHandler.CreateTree)
			r.Route("/{treeID}", func(r chi.Router) {
				r.Get("/", treeHandler.GetTree)
				r.Patch("/", treeHandler.UpdateTree)
				r.Delete("/", treeHandler.DeleteTree)

				r.Route("/people", func(r chi.Router) {
					r.Get("/", personHandler.ListPeople)
					r.Post("/", personHandler.CreatePerson)
					r.Route("/{personID}", func(r chi.Router) {
						r.Get("/", personHandler.GetPerson)
						r.Patch("/", personHandler.UpdatePerson)
						r.Delete("/", personHandler.DeletePerson)
					})
				})

				r.Route("/relations", func(r chi.Router) {
					r.Get("/", relationHandler.ListRelations)
					r.Post("/", relationHandler.CreateRelation)
					r.Delete("/{relationID}", relationHandler.DeleteRelation)
				})

				r.Route("/import", func(r chi.Router) {
					r.Post("/people/preview", importHandler.PreviewPeopleImport)
					r.Post("/people", importHandler.CommitPeopleImport)
					r.Post("/relations/preview", importHandler.PreviewRelationsImport)
					r.Post("/relations", importHandler.CommitRelationsImport)
				})

				r.Route("/export", func(r chi.Router) {
					r.Get("/people", exportHandler.ExportPeople)
					r.Get("/relations", exportHandler.ExportRelations)
				})
			})
		})
	})

	serverAddr := ":" + cfg.Port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
