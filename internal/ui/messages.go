package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/rotation-map/internal/models"
	"github.com/ngmaloney/rotation-map/internal/route"
)

// RouteBuilder computes rotation geometry
type RouteBuilder interface {
	Build(ctx context.Context, names []string) (*route.Result, error)
}

// ServiceLister lists stored services
type ServiceLister interface {
	ListServices(ctx context.Context) ([]models.Service, error)
}

// servicesFetchedMsg is sent when the stored services have been loaded
type servicesFetchedMsg struct {
	services []models.Service
	err      error
}

// routeBuiltMsg is sent when a rotation has been routed
type routeBuiltMsg struct {
	title  string
	result *route.Result
	err    error
}

// errMsg is a message type for errors
type errMsg struct {
	err error
}

func fetchServices(lister ServiceLister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		services, err := lister.ListServices(ctx)
		return servicesFetchedMsg{services: services, err: err}
	}
}

func buildRoute(builder RouteBuilder, title string, names []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		result, err := builder.Build(ctx, names)
		return routeBuiltMsg{title: title, result: result, err: err}
	}
}
