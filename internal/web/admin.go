package web

import (
	"net/http"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/gin-gonic/gin"
)

type adminStat struct {
	Label string
	Value uint64
}

var adminStats = []struct {
	label string
	id    goBoard.MetricID
}{
	{"Sign-ins", goBoard.MetricSessionLogin},
	{"Sign-outs", goBoard.MetricSessionLogout},
	{"Expired sessions", goBoard.MetricSessionExpired},
	{"Guard denials (anonymous)", goBoard.MetricGuardDeniedAnonymous},
	{"Guard denials (wrong role)", goBoard.MetricGuardDeniedWrongRole},
	{"Backend calls", goBoard.MetricAPIRequest},
	{"Backend failures", goBoard.MetricAPIFailure},
	{"Storage failures", goBoard.MetricStorageFailure},
}

// adminDashboard shows this instance's session and guard counters.
func (s *Server) adminDashboard(c *gin.Context) {
	m := s.engine.Metrics()
	stats := make([]adminStat, 0, len(adminStats))
	for _, st := range adminStats {
		stats = append(stats, adminStat{Label: st.label, Value: m.Value(st.id)})
	}
	s.render(c, http.StatusOK, "admin_dashboard", view{Title: "Admin", Data: stats})
}
