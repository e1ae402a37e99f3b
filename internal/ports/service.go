package ports

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ngmaloney/rotation-map/internal/models"
)

var validate = validator.New()

// PortInput is a port as entered by a user or read from a file
type PortInput struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Code      string   `json:"code" validate:"omitempty,alphanum,len=5"`
	Latitude  float64  `json:"lat" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"lon" validate:"gte=-180,lte=180"`
	Aliases   []string `json:"aliases" validate:"dive,max=100"`
}

// Service orchestrates port operations
type Service struct {
	repo *Repository
}

// NewService creates a new port service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreatePort validates and saves a port
func (s *Service) CreatePort(ctx context.Context, in PortInput) (*models.Port, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	port := &models.Port{
		Name:      in.Name,
		Code:      in.Code,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Aliases:   in.Aliases,
	}
	if err := s.repo.SavePort(ctx, port); err != nil {
		return nil, fmt.Errorf("saving port: %w", err)
	}

	return port, nil
}

func (s *Service) ListPorts(ctx context.Context) ([]models.Port, error) {
	return s.repo.ListPorts(ctx)
}

func (s *Service) DeletePort(ctx context.Context, name string) error {
	return s.repo.DeletePort(ctx, name)
}

func (s *Service) AddAlias(ctx context.Context, portName, alias string) error {
	return s.repo.AddAlias(ctx, portName, alias)
}
