package database

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"github.com/mroshb/matchday/internal/export"
	"github.com/mroshb/matchday/internal/models"
	"github.com/mroshb/matchday/internal/repositories"
	"github.com/mroshb/matchday/internal/security"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/mroshb/matchday/pkg/logger"
)

// Seeder is the write side of a store used to load users and groups.
// Both the gorm and the memory store satisfy it.
type Seeder interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateGroup(ctx context.Context, group *models.UserGroup, memberIDs []uint) error
	GetGroupByCode(ctx context.Context, code string) (*models.UserGroup, error)
}

// ImportRoster creates one group with fresh users for every roster group
// whose code is not taken yet. Groups without a code get the slug of their
// name. It returns the number of groups created.
func ImportRoster(ctx context.Context, seeder Seeder, roster []export.RosterGroup) (int, error) {
	created := 0
	for _, rg := range roster {
		code := rosterCode(rg)
		if code == "" || len(rg.Members) == 0 {
			logger.Warn("Skipping roster group without code or members", "code", rg.Code)
			continue
		}

		_, err := seeder.GetGroupByCode(ctx, code)
		if err == nil {
			logger.Info("Roster group already exists", "code", code)
			continue
		}
		if !errors.Is(err, repositories.ErrRecordNotFound) {
			return created, err
		}

		memberIDs := make([]uint, 0, len(rg.Members))
		for _, m := range rg.Members {
			user := &models.User{
				Nickname: security.SanitizeString(m.Nickname),
				City:     security.SanitizeString(m.City),
				District: security.SanitizeString(m.District),
			}
			if err := seeder.CreateUser(ctx, user); err != nil {
				return created, err
			}
			memberIDs = append(memberIDs, user.ID)
		}

		group := &models.UserGroup{Code: code, Name: strings.TrimSpace(rg.Name)}
		if err := seeder.CreateGroup(ctx, group, memberIDs); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func rosterCode(rg export.RosterGroup) string {
	if code := security.SanitizeCode(rg.Code); code != "" {
		return code
	}
	return security.SanitizeCode(slug.Make(rg.Name))
}

// SeedDemo loads two five-a-side groups with random codes so a fresh
// in-memory server has someone to queue.
func SeedDemo(ctx context.Context, seeder Seeder) ([]string, error) {
	roster := []export.RosterGroup{
		{
			Code: "DEMO-" + security.GenerateSecureCode(6),
			Name: "Demo Reds",
			Members: []export.RosterMember{
				{Nickname: "red1", City: "Seoul"},
				{Nickname: "red2", City: "Seoul"},
				{Nickname: "red3", City: "Seoul"},
				{Nickname: "red4", City: "Seoul"},
				{Nickname: "red5", City: "Seoul"},
			},
		},
		{
			Code: "DEMO-" + security.GenerateSecureCode(6),
			Name: "Demo Blues",
			Members: []export.RosterMember{
				{Nickname: "blue1", City: "Busan"},
				{Nickname: "blue2", City: "Busan"},
				{Nickname: "blue3", City: "Busan"},
				{Nickname: "blue4", City: "Busan"},
				{Nickname: "blue5", City: "Busan"},
			},
		},
	}

	if _, err := ImportRoster(ctx, seeder, roster); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(roster))
	for _, rg := range roster {
		codes = append(codes, rg.Code)
	}
	logger.Info("Seeded demo groups", "codes", codes)
	return codes, nil
}
