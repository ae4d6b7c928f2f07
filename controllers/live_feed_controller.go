package controllers

import (
	"gymcheckin/middleware"
	"gymcheckin/services/logger"
	"gymcheckin/services/notification"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// LiveFeedController upgrades staff connections to the websocket that
// receives scan events.
type LiveFeedController struct {
	melody *melody.Melody
	logger logger.Logger
}

func NewLiveFeedController(m *melody.Melody, log logger.Logger) *LiveFeedController {
	if log == nil {
		log = logger.Nop{}
	}
	ctl := &LiveFeedController{melody: m, logger: log}
	m.HandleConnect(func(s *melody.Session) {
		userID, _ := s.Get(notification.SessionKeyUserID)
		ctl.logger.Debug("live feed connected: user %v", userID)
	})
	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get(notification.SessionKeyUserID)
		ctl.logger.Debug("live feed disconnected: user %v", userID)
	})
	return ctl
}

// HandleWS must run behind AuthMiddleware.
func (ctl *LiveFeedController) HandleWS(c *gin.Context) {
	keys := map[string]interface{}{
		notification.SessionKeyUserID: c.GetUint(middleware.ContextUserID),
		notification.SessionKeyRole:   c.GetInt(middleware.ContextUserRole),
	}
	if err := ctl.melody.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		ctl.logger.Warn("live feed upgrade failed: %v", err)
	}
}
