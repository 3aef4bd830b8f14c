package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/health-pal-uit/health-pal-server-sub000/internal/model"
)

type UserInput struct {
	Name      string `validate:"required"`
	BirthDate *time.Time
	Sex       string   `validate:"required,oneof=male female"`
	WeightKg  *float64 `validate:"omitempty,gt=0"`
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Sex = strings.ToLower(strings.TrimSpace(in.Sex))
	if err := validateInput(in); err != nil {
		return model.User{}, err
	}
	u := model.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		BirthDate: in.BirthDate,
		Sex:       model.Sex(in.Sex),
		WeightKg:  in.WeightKg,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return model.User{}, err
	}
	return s.users.User(ctx, u.ID)
}

func (s *Service) User(ctx context.Context, id string) (model.User, error) {
	return s.users.User(ctx, strings.TrimSpace(id))
}

func parseID(v string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
