package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veckomat/internal/app"
	"veckomat/internal/clipper"
	"veckomat/internal/config"
	"veckomat/internal/database"
	"veckomat/internal/llm"
	"veckomat/internal/meal"
	"veckomat/internal/planner"
	"veckomat/internal/shopping"
	"veckomat/internal/signals"
	"veckomat/internal/telegram"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx := context.Background()

	// 2. Initialize Infrastructure
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	meals := meal.NewRepository(db.SQL)
	plans := planner.NewPlanRepository(db.SQL)
	history := planner.NewHistoryRepository(db.SQL)
	sigStore := signals.NewStore(db.SQL)

	var drafter shopping.IngredientDrafter
	var recipeClipper *clipper.Clipper
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer gemini.Close()
		drafter = llm.NewDrafter(gemini)
		recipeClipper = clipper.NewClipper(meals, gemini)
	} else {
		log.Println("GEMINI_API_KEY not set: ingredient drafting and recipe import are disabled")
	}

	// 3. Initialize Services
	planSvc := planner.NewService(db.SQL, meals, plans, history, sigStore, nil)
	builder := shopping.NewBuilder(meals, plans, shopping.NewRepository(db.SQL), drafter)
	application := app.NewApp(cfg, db, meals, plans, sigStore, planSvc, builder, recipeClipper)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 5. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
