package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ticketly/internal/events"
	"ticketly/internal/shared/config"
	"ticketly/internal/shared/database"
	"ticketly/internal/tickets"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Ticketly Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"order_tickets",
		"orders",
		"tickets",
		"events",
	}

	for _, table := range tables {
		if err := s.db.PostgreSQL.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
		fmt.Printf("   Cleaned table: %s\n", table)
	}

	return nil
}

// SeedAll creates demo events with full seat maps
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	eventRepo := events.NewRepository(s.db.GetPostgreSQL())
	ticketRepo := tickets.NewRepository(s.db.GetPostgreSQL())

	demos := []struct {
		name     string
		venue    string
		startsAt time.Time
		sections []string
		rows     int
	}{
		{"Midnight Orchestra", "Grand Hall", time.Now().Add(14 * 24 * time.Hour), []string{"A", "B", "C"}, 10},
		{"Summer Jazz Night", "Riverside Arena", time.Now().Add(30 * 24 * time.Hour), []string{"FLOOR", "BALCONY"}, 20},
		{"Stand-up Special", "Comedy Cellar", time.Now().Add(7 * 24 * time.Hour), []string{"A"}, 15},
	}

	for _, demo := range demos {
		seatNumbers := make([]string, 0, len(demo.sections)*demo.rows)
		for _, section := range demo.sections {
			for n := 1; n <= demo.rows; n++ {
				seatNumbers = append(seatNumbers, fmt.Sprintf("%s-%d", section, n))
			}
		}

		event := &events.Event{
			Name:       demo.name,
			Venue:      demo.venue,
			StartsAt:   demo.startsAt,
			TotalSeats: len(seatNumbers),
		}
		if err := eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event %q: %w", demo.name, err)
		}

		seats := make([]tickets.Ticket, 0, len(seatNumbers))
		for _, seat := range seatNumbers {
			seats = append(seats, tickets.Ticket{
				EventID:    event.ID,
				SeatNumber: seat,
				Status:     tickets.StatusAvailable,
			})
		}
		if err := ticketRepo.CreateBatch(ctx, seats); err != nil {
			return fmt.Errorf("failed to create seats for %q: %w", demo.name, err)
		}

		fmt.Printf("   Seeded event: %s (%d seats)\n", demo.name, len(seatNumbers))
	}

	return nil
}
