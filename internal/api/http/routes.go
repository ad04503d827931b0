package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// ForecastClient is the part of weather.Client the handlers use.
type ForecastClient interface {
	SearchLocation(ctx context.Context, query string) ([]weather.Location, error)
	GetForecast(ctx context.Context, lat, lon float64) (weather.ForecastResult, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, client ForecastClient, locations *store.LocationStore, snapshots weather.SnapshotStore) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})

	v1 := app.Group("/api/v1")

	v1.Get("/locations/search", func(c *fiber.Ctx) error {
		name := strings.TrimSpace(c.Query("name"))
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
		}

		results, err := client.SearchLocation(c.UserContext(), name)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"results": results})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := client.GetForecast(c.UserContext(), q.Latitude, q.Longitude)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"forecast":   res.Forecast,
			"enrichment": res.Enrichment,
			"summary":    weather.Summarize(res.Forecast, time.Now()),
		})
	})

	v1.Get("/forecast/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, ok := locations.Find(req.Location.toLocation())
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "location is not saved")
		}

		history, err := snapshots.GetRange(loc, req.From, req.To)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"from":      req.From,
			"to":        req.To,
			"snapshots": history,
		})
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"locations": locations.List()})
	})

	v1.Post("/locations", func(c *fiber.Ctx) error {
		var loc weather.Location
		if err := c.BodyParser(&loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid location payload")
		}
		if err := validate.Struct(loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		added, err := locations.Add(c.UserContext(), loc)
		if err != nil {
			return err
		}

		status := fiber.StatusOK
		if added {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{
			"added":     added,
			"locations": locations.List(),
		})
	})

	v1.Delete("/locations", func(c *fiber.Ctx) error {
		q, err := parseCoordinates(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		removed, err := locations.Remove(c.UserContext(), q.toLocation())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"removed":   removed,
			"locations": locations.List(),
		})
	})

	v1.Post("/locations/reload", func(c *fiber.Ctx) error {
		status := locations.Load(c.UserContext())
		return c.JSON(fiber.Map{
			"status":    status,
			"locations": locations.List(),
		})
	})

	v1.Get("/locations/forecasts", func(c *fiber.Ctx) error {
		saved := locations.List()
		out := make([]fiber.Map, 0, len(saved))
		for _, loc := range saved {
			entry := fiber.Map{"location": loc, "snapshot": nil}
			snap, err := snapshots.GetLatest(loc)
			switch {
			case err == nil:
				entry["snapshot"] = snap
			case !errors.Is(err, store.ErrNotFound):
				return err
			}
			out = append(out, entry)
		}
		return c.JSON(fiber.Map{"forecasts": out})
	})
}

// coordinateQuery holds query parameters identifying a coordinate pair.
type coordinateQuery struct {
	Latitude  float64 `validate:"latitude"`
	Longitude float64 `validate:"longitude"`
}

func (q coordinateQuery) toLocation() weather.Location {
	return weather.Location{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
	}
}

func parseCoordinates(c *fiber.Ctx) (coordinateQuery, error) {
	var q coordinateQuery

	latStr := c.Query("latitude")
	lonStr := c.Query("longitude")
	if latStr == "" || lonStr == "" {
		return q, errors.New("latitude and longitude query parameters are required")
	}

	var err error
	if q.Latitude, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, errors.New("latitude must be a number")
	}
	if q.Longitude, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, errors.New("longitude must be a number")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location coordinateQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseCoordinates(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
