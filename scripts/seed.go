package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/opsatya/cinemaSync/internal/config"
	"github.com/opsatya/cinemaSync/internal/model"
	"github.com/opsatya/cinemaSync/internal/pkg/database"
	"github.com/opsatya/cinemaSync/internal/pkg/utils"
	"github.com/opsatya/cinemaSync/internal/repository"
)

func main() {
	log.Println("Starting database seed...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := zap.NewNop()
	db, err := database.NewMongo(&cfg.Mongo, logger)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Close(db, logger)

	ctx := context.Background()

	roomRepo := repository.NewRoomRepository(db)
	movieRepo := repository.NewMovieRepository(db)

	if err := movieRepo.EnsureIndexes(ctx); err != nil {
		log.Printf("Failed to ensure movie indexes: %v", err)
	}

	// Seed rooms
	log.Println("Creating rooms...")
	rooms := []struct {
		host     string
		name     string
		desc     string
		source   model.MovieSource
		private  bool
		password string
	}{
		{"alice", "Friday Movie Night", "Weekly watch party",
			model.MovieSource{Type: model.MovieSourceURL, Value: "https://example.com/bbb.mp4", Name: "Big Buck Bunny"}, false, ""},
		{"bob", "Documentary Club", "Nature documentaries only",
			model.MovieSource{Type: model.MovieSourceURL, Value: "https://example.com/oceans.mp4", Name: "Oceans"}, false, ""},
		{"charlie", "Private Screening", "Invite only",
			model.MovieSource{Type: model.MovieSourceDrive, VideoID: "1AbCdEfGhIjKlMnOp", Name: "Home Video"}, true, "letmein"},
	}

	now := time.Now().UTC()
	var codes []string
	for _, r := range rooms {
		room := &model.Room{
			RoomID:      model.NewRoomID(),
			HostID:      r.host,
			Name:        r.name,
			Description: r.desc,
			MovieSource: r.source,
			IsPrivate:   r.private,
			EnableChat:  true, EnableReactions: true,
			MaxParticipants: 10,
			Participants: []model.Participant{
				{UserID: r.host, IsHost: true, JoinedAt: now},
			},
			PlaybackState: model.PlaybackState{LastUpdated: now},
			IsActive:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if r.password != "" {
			hash, err := utils.HashPassword(r.password)
			if err != nil {
				log.Fatalf("Failed to hash password: %v", err)
			}
			room.PasswordHash = hash
		}

		if err := roomRepo.Insert(ctx, room); err != nil {
			log.Printf("Failed to create room %s: %v", r.name, err)
			continue
		}
		codes = append(codes, room.RoomID)
		log.Printf("Created room %s (%s)", r.name, room.RoomID)
	}

	// Seed movie catalog entries
	log.Println("Creating movie metadata...")
	movies := []*model.MovieMetadata{
		{FileID: "1AbCdEfGhIjKlMnOp", Name: "Home Video", Type: "video", MimeType: "video/mp4", Size: 734003200, DurationMillis: 5400000},
		{FileID: "2QrStUvWxYzAbCdEf", Name: "Vacation 2024", Type: "video", MimeType: "video/mp4", Size: 1288490188, DurationMillis: 7200000},
		{FileID: "3GhIjKlMnOpQrStUv", Name: "Family", Type: "folder"},
	}
	for _, m := range movies {
		if err := movieRepo.Save(ctx, m); err != nil {
			log.Printf("Failed to save movie %s: %v", m.Name, err)
		} else {
			log.Printf("Saved movie metadata: %s", m.Name)
		}
	}

	log.Println("Seed completed successfully!")
	fmt.Println("\n--- Seeded Rooms ---")
	for _, code := range codes {
		fmt.Printf("Room code: %s\n", code)
	}
	fmt.Println("Private room password: letmein")
}
