package services

import (
	"context"
	"strconv"

	"bookbus/internal/domain/models"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func stopFeature(s models.Stop, props map[string]any) *geojson.Feature {
	if props == nil {
		props = map[string]any{}
	}
	props["name"] = s.Name
	return &geojson.Feature{
		ID:         strconv.FormatInt(s.ID, 10),
		Geometry:   geom.NewPointFlat(geom.XY, []float64{*s.Longitude, *s.Latitude}),
		Properties: props,
	}
}

// StopsGeoJSON returns every geocoded stop as a FeatureCollection of points.
func (s CatalogService) StopsGeoJSON(ctx context.Context) ([]byte, error) {
	stops, err := s.Stops.List(ctx, "")
	if err != nil {
		return nil, err
	}
	fc := geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, st := range stops {
		if st.HasLocation() {
			fc.Features = append(fc.Features, stopFeature(st, nil))
		}
	}
	return fc.MarshalJSON()
}

// RouteGeoJSON returns a bus route as a LineString through its geocoded stops,
// followed by one point per stop. Stops without coordinates are left out.
func (s CatalogService) RouteGeoJSON(ctx context.Context, busID int64) ([]byte, error) {
	view, err := s.GetBus(ctx, busID)
	if err != nil {
		return nil, err
	}

	fc := geojson.FeatureCollection{Features: []*geojson.Feature{}}
	var coords []float64
	var points []*geojson.Feature
	for _, rs := range view.Route {
		if !rs.Stop.HasLocation() {
			continue
		}
		coords = append(coords, *rs.Stop.Longitude, *rs.Stop.Latitude)
		points = append(points, stopFeature(rs.Stop, map[string]any{
			"order":       rs.Order,
			"arrivalTime": rs.ArrivalTime,
			"nextDay":     rs.NextDay,
		}))
	}
	if len(coords) >= 4 {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       "bus-" + strconv.FormatInt(busID, 10),
			Geometry: geom.NewLineStringFlat(geom.XY, coords),
			Properties: map[string]any{
				"busId": busID,
				"name":  view.Name,
			},
		})
	}
	fc.Features = append(fc.Features, points...)
	return fc.MarshalJSON()
}
