package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
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
)

func main() {
	generate := flag.Bool("generate", false, "Plan this week's dinners")
	force := flag.Bool("force", false, "Replan even if the week is already planned")
	swapDay := flag.String("swap", "", "Draw a new meal for one weekday (e.g. tisdag)")
	servingsDay := flag.String("servings-day", "", "Weekday whose servings to change")
	servings := flag.Int("servings", 0, "Servings for -servings-day")
	showList := flag.Bool("shopping-list", false, "Show the week's shopping list")
	importURL := flag.String("import-url", "", "Import a recipe URL into the library")
	listMeals := flag.Bool("meals", false, "List the meal library")
	resetSignals := flag.Bool("reset-signals", false, "Forget learned day preferences")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	userID := cfg.DefaultUserID
	now := time.Now()

	switch {
	case *generate:
		result, err := application.GeneratePlan(ctx, userID, now, *force)
		if err != nil {
			log.Fatalf("Failed to generate plan: %v", err)
		}
		printPlan(result.Plan)
		if result.Warning != "" {
			fmt.Printf("\nNote: %s\n", result.Warning)
		}

	case *swapDay != "":
		day, err := planner.ParseDay(*swapDay)
		if err != nil {
			log.Fatalf("Invalid weekday: %v", err)
		}
		plan, err := application.SwapDay(ctx, userID, now, day)
		if err != nil {
			log.Fatalf("Failed to swap: %v", err)
		}
		printPlan(plan)

	case *servingsDay != "":
		day, err := planner.ParseDay(*servingsDay)
		if err != nil {
			log.Fatalf("Invalid weekday: %v", err)
		}
		if err := application.SetDayServings(ctx, userID, now, day, *servings); err != nil {
			log.Fatalf("Failed to set servings: %v", err)
		}
		fmt.Printf("%s updated.\n", planner.DayName(day))

	case *showList:
		list, err := application.ShoppingList(ctx, userID, now)
		if err != nil {
			log.Fatalf("Failed to build shopping list: %v", err)
		}
		printList(list)

	case *importURL != "":
		m, err := application.ImportRecipe(ctx, userID, *importURL)
		if err != nil {
			log.Fatalf("Failed to import recipe: %v", err)
		}
		fmt.Printf("Imported '%s' (%d servings, %d ingredient lines)\n",
			m.Name, m.DefaultServings, len(m.RawIngredients))

	case *listMeals:
		meals, err := application.ListMeals(ctx, userID)
		if err != nil {
			log.Fatalf("Failed to list meals: %v", err)
		}
		for _, m := range meals {
			fmt.Printf("%-30s 👍%d 👎%d  (%s)\n", m.Name, m.ThumbsUp, m.ThumbsDown, m.Complexity)
		}

	case *resetSignals:
		if err := application.ResetSignals(ctx, userID); err != nil {
			log.Fatalf("Failed to reset signals: %v", err)
		}
		fmt.Println("Learned day preferences cleared.")

	default:
		flag.Usage()
		os.Exit(1)
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	meals := meal.NewRepository(db.SQL)
	plans := planner.NewPlanRepository(db.SQL)
	history := planner.NewHistoryRepository(db.SQL)
	sigStore := signals.NewStore(db.SQL)
	planSvc := planner.NewService(db.SQL, meals, plans, history, sigStore, nil)

	var drafter shopping.IngredientDrafter
	var recipeClipper *clipper.Clipper
	cleanup := func() { db.Close() }

	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		drafter = llm.NewDrafter(gemini)
		recipeClipper = clipper.NewClipper(meals, gemini)
		cleanup = func() {
			gemini.Close()
			db.Close()
		}
	} else {
		log.Println("GEMINI_API_KEY not set: ingredient drafting and recipe import are disabled")
	}

	builder := shopping.NewBuilder(meals, plans, shopping.NewRepository(db.SQL), drafter)
	application := app.NewApp(cfg, db, meals, plans, sigStore, planSvc, builder, recipeClipper)
	return application, cleanup, nil
}

func printPlan(plan *planner.WeeklyPlan) {
	fmt.Printf("Week of %s\n", plan.WeekStart.Format("2006-01-02"))
	for _, e := range plan.Entries {
		fmt.Printf("  %-8s %s (%d servings)\n", planner.DayName(e.Weekday), e.MealName, e.Servings)
	}
}

func printList(list *shopping.List) {
	fmt.Printf("Shopping list, week of %s\n", list.WeekStart.Format("2006-01-02"))
	for _, it := range list.Items {
		box := "[ ]"
		if it.Checked {
			box = "[x]"
		}
		fmt.Printf("  %s %-25s %s\n", box, it.DisplayName, shopping.FormatAmount(&it))
	}
}
