// Package main seeds the configured store with a demo user, sample listings
// and reviews so the web client has something to show.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed --data-path ./tmp --db-driver sqlite
//	DATABASE_DRIVER=postgres DATABASE_URL=postgres://... go run ./cmd/seed
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/templatedir/templatedir-server/internal/auth"
	"github.com/templatedir/templatedir-server/internal/config"
	domainerrors "github.com/templatedir/templatedir-server/internal/errors"
	"github.com/templatedir/templatedir-server/internal/logger"
	"github.com/templatedir/templatedir-server/internal/service"
	"github.com/templatedir/templatedir-server/internal/store/sqlstore"
	"github.com/templatedir/templatedir-server/internal/validation"
)

const (
	demoEmail    = "demo@templatedir.dev"
	demoPassword = "templatedir-demo"
)

type sampleListing struct {
	req     service.SubmitRequest
	tags    []string
	reviews []sampleReview
}

type sampleReview struct {
	stars   int
	content string
}

var samples = []sampleListing{
	{
		req: service.SubmitRequest{
			Name:        "Go Chi REST Starter",
			Description: "A chi router service with structured logging and graceful shutdown",
			Type:        "GitHub",
			URL:         "https://github.com/templatedir/go-chi-starter",
			Language:    "Go",
			Owner:       "templatedir",
		},
		tags:    []string{"go", "rest", "chi"},
		reviews: []sampleReview{{5, "Exactly what I needed for a new service."}, {4, "Solid defaults."}},
	},
	{
		req: service.SubmitRequest{
			Name:        "Next.js Tailwind Blog",
			Description: "Markdown blog with Tailwind styling and RSS",
			Type:        "GitHub",
			URL:         "https://github.com/templatedir/next-tailwind-blog",
			Language:    "TypeScript",
			Owner:       "templatedir",
		},
		tags:    []string{"nextjs", "tailwind", "blog"},
		reviews: []sampleReview{{3, "Needs an update for the latest Next."}},
	},
	{
		req: service.SubmitRequest{
			Name:        "Flask Todo",
			Description: "Minimal Flask todo app with SQLite",
			Type:        "Replit",
			URL:         "https://replit.com/@templatedir/flask-todo",
			Language:    "Python",
			Owner:       "replit-fan",
		},
		tags: []string{"python", "flask"},
	},
	{
		req: service.SubmitRequest{
			Name:        "Discord Bot Kit",
			Description: "Slash-command Discord bot with a command loader",
			Type:        "Replit",
			URL:         "https://replit.com/@templatedir/discord-bot-kit",
			Language:    "JavaScript",
			Owner:       "botsmith",
		},
		tags:    []string{"discord", "bot", "node"},
		reviews: []sampleReview{{5, "Running in five minutes."}},
	},
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.App.DataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data path: %v", err)
	}

	fmt.Printf("Opening %s database\n", cfg.Database.Driver)
	st, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL, lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	key, err := auth.LoadOrGenerateKey(cfg.AuthKeyPath())
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	validator := validation.New()
	authService := service.NewAuthService(st, tokens, validator, nil, lg.Logger)
	listingService := service.NewListingService(st, validator, nil, lg.Logger)
	reviewService := service.NewReviewService(st, nil, lg.Logger)
	listService := service.NewListService(st, nil, lg.Logger)

	ctx := context.Background()

	userID, err := demoUser(ctx, authService)
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}
	fmt.Printf("Demo user: %s / %s\n", demoEmail, demoPassword)

	for _, sample := range samples {
		req := sample.req
		if len(sample.tags) > 0 {
			raw, err := json.Marshal(sample.tags)
			if err != nil {
				log.Fatalf("Failed to encode tags: %v", err)
			}
			req.Tags = raw
		}

		listing, err := listingService.Submit(ctx, userID, req)
		if err != nil {
			log.Fatalf("Failed to submit %q: %v", req.Name, err)
		}
		fmt.Printf("  + %s (%s)\n", listing.Name, listing.ID)

		for _, r := range sample.reviews {
			if _, err := reviewService.Create(ctx, userID, listing.ID, r.stars, r.content); err != nil {
				log.Fatalf("Failed to review %q: %v", listing.Name, err)
			}
		}
	}

	// Save the first sample so the demo user's Saved list is not empty.
	first, err := listingService.ListBySubmitter(ctx, userID)
	if err == nil && len(first) > 0 {
		if _, err := listService.SaveListing(ctx, userID, first[len(first)-1].ID); err != nil {
			log.Fatalf("Failed to save listing: %v", err)
		}
	}

	fmt.Printf("Seeded %d listings\n", len(samples))
}

// demoUser signs up the demo account, or signs in when it already exists.
func demoUser(ctx context.Context, authService *service.AuthService) (string, error) {
	meta := service.ClientMeta{UserAgent: "templatedir-seed"}

	resp, err := authService.SignUp(ctx, service.SignUpRequest{
		Email:    demoEmail,
		Password: demoPassword,
		Username: "demo",
	}, meta)
	if err == nil {
		return resp.User.ID, nil
	}
	if !errors.Is(err, domainerrors.ErrAlreadyExists) {
		return "", err
	}

	resp, err = authService.SignIn(ctx, service.SignInRequest{Email: demoEmail, Password: demoPassword}, meta)
	if err != nil {
		return "", err
	}
	return resp.User.ID, nil
}
