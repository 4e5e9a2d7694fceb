package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/models"
)

var (
	_ tea.Msg = recommendationMsg{}
)

// recommendationMsg carries a finished request back to Update together with the ticket it was issued for.
type recommendationMsg struct {
	ticket controller.Ticket
	rec    *models.Recommendation
	err    error
}
