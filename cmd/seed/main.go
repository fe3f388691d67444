package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/lfk/lfk-backend/config"
	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/internal/app/repository"
	"github.com/lfk/lfk-backend/internal/db"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/lfk/lfk-backend/pkg/util"
	"gorm.io/gorm"
)

func main() {
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	if len(os.Args) < 2 {
		logger.Fatal("Usage: go run ./cmd/seed <classes.xlsx>", errors.New("missing workbook path"))
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	conn, err := db.Initialize(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		logger.Fatal("Failed to open workbook", err)
	}
	defer file.Close()

	classes, skipped, err := readClasses(file)
	if err != nil {
		logger.Fatal("Failed to read workbook", err)
	}
	for _, s := range skipped {
		logger.Warn("Skipping workbook row", map[string]interface{}{
			"line":   s.Line,
			"reason": s.Reason,
		})
	}

	imported, err := importClasses(context.Background(), conn, classes, os.Getenv("SEED_COACH_PASSWORD"))
	if err != nil {
		logger.Fatal("Import failed", err)
	}

	logger.Info("Import completed", map[string]interface{}{
		"rows":     len(classes) + len(skipped),
		"imported": imported,
		"skipped":  len(skipped),
	})
}

// importClasses creates missing coaches and every class whose alias is not
// taken yet. It returns the number of classes created.
func importClasses(ctx context.Context, conn *gorm.DB, classes []classRow, coachPassword string) (int, error) {
	if coachPassword == "" {
		coachPassword = "change-me"
	}
	users := repository.NewUserRepository(conn)
	events := repository.NewEventRepository(conn)

	coaches := make(map[string]uint)
	imported := 0
	for _, row := range classes {
		coachID, ok := coaches[row.CoachEmail]
		if !ok {
			id, err := ensureCoach(ctx, users, row.CoachEmail, coachPassword)
			if err != nil {
				return imported, err
			}
			coaches[row.CoachEmail] = id
			coachID = id
		}

		var existing int64
		if err := conn.WithContext(ctx).Model(&model.Event{}).Where("alias = ?", row.Alias).Count(&existing).Error; err != nil {
			return imported, err
		}
		if existing > 0 {
			logger.Info("Class already exists, skipping", map[string]interface{}{
				"alias": row.Alias,
			})
			continue
		}

		event, err := toEvent(row, coachID)
		if err != nil {
			return imported, err
		}
		if err := events.Create(ctx, event); err != nil {
			return imported, fmt.Errorf("row %d: %w", row.Line, err)
		}
		imported++
	}
	return imported, nil
}

func ensureCoach(ctx context.Context, users repository.UserRepository, email, password string) (uint, error) {
	user, err := users.FindByEmail(ctx, email)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return 0, err
	}
	coach := &model.User{Email: email, PasswordHash: hash, FirstName: "Coach", Role: model.RoleCoach}
	if err := users.Create(ctx, coach); err != nil {
		return 0, err
	}
	return coach.ID, nil
}

func toEvent(row classRow, coachID uint) (*model.Event, error) {
	event := &model.Event{
		CoachID:        coachID,
		Title:          row.Title,
		Alias:          row.Alias,
		Price:          row.Price,
		Enabled:        true,
		IsMembership:   row.MembershipType != "",
		MembershipType: row.MembershipType,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
	}
	if row.Password != "" {
		hash, err := util.HashPassword(row.Password)
		if err != nil {
			return nil, err
		}
		event.PasswordHash = hash
	}

	types := make([]string, 0, len(row.Plans))
	for t := range row.Plans {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		event.MembershipPlans = append(event.MembershipPlans, model.MembershipPlan{
			SubscriptionType: t,
			Price:            row.Plans[t],
		})
	}
	return event, nil
}
