package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ngmaloney/rotation-map/internal/models"
)

// serviceItem wraps a Service for use in a list
type serviceItem struct {
	service models.Service
}

// FilterValue implements list.Item
func (s serviceItem) FilterValue() string {
	return s.service.Name
}

// Title implements list.DefaultItem
func (s serviceItem) Title() string {
	if s.service.Description != "" && s.service.Description != "Service "+s.service.Name {
		return fmt.Sprintf("%s - %s", s.service.Name, s.service.Description)
	}
	return s.service.Name
}

// Description implements list.DefaultItem
func (s serviceItem) Description() string {
	names := s.service.PortNames()
	if len(names) == 0 {
		return "no port calls"
	}
	return fmt.Sprintf("%d calls • %s", len(names), strings.Join(names, " → "))
}

// createServiceList creates a list.Model from services
func createServiceList(services []models.Service, width, height int) list.Model {
	items := make([]list.Item, len(services))
	for i, svc := range services {
		items[i] = serviceItem{service: svc}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Select a Service"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}
