package handlers

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/studio_scheduler/internal/controller/state"
	"github.com/Freeeeeet/studio_scheduler/internal/service"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	deps         *callbacktypes.Handler // общие зависимости с callback handlers
	services     *service.Services
	clock        service.Clock
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(deps *callbacktypes.Handler, stateManager *state.Manager) *Handlers {
	return &Handlers{
		deps:         deps,
		services:     deps.Services,
		clock:        deps.Clock,
		stateManager: stateManager,
		logger:       deps.Logger,
	}
}
