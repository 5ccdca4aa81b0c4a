package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestScrapeHandlerExposesExperienceMetrics(t *testing.T) {
	app := fiber.New()
	app.Get("/metrics", ScrapeHandler())

	ExperienceTransitions().WithLabelValues("pending", "approved").Inc()
	DashboardCache().WithLabelValues("hit").Inc()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `exdb_experience_transitions_total{from="pending",to="approved"}`)
	require.Contains(t, string(body), `exdb_dashboard_cache_total{result="hit"}`)
	require.Contains(t, string(body), "go_goroutines")
}
