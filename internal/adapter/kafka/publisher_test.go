package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-normals-etl/internal/domain"
)

func testResult(t *testing.T) *domain.AnalysisResult {
	t.Helper()

	zonal := geojson.NewFeatureCollection()
	west := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	west.Properties["name"] = "west"
	west.Properties["ppt_mean"] = 512.5
	zonal.Append(west)
	east := geojson.NewFeature(orb.Polygon{{{1, 0}, {2, 0}, {2, 1}, {1, 0}}})
	east.Properties["name"] = "east"
	east.Properties["ppt_mean"] = nil
	zonal.Append(east)

	points := geojson.NewFeatureCollection()
	site := geojson.NewFeature(orb.Point{0.5, 0.5})
	site.Properties["name"] = "site-a"
	site.Properties["ppt"] = 480.0
	points.Append(site)
	anon := geojson.NewFeature(orb.Point{1.5, 0.5})
	points.Append(anon)

	mean := 505.2
	return &domain.AnalysisResult{
		Regions:   []string{"west", "east"},
		Variables: []domain.Variable{domain.VarPrecip},
		Grid:      domain.Grid{Cols: 2, Rows: 1, MinX: 0, MinY: 0, CellSize: 1, CRS: domain.CRSWGS84},
		Global: []domain.GlobalStat{{
			Variable:   domain.VarPrecip,
			Reduction:  domain.ReduceSum,
			Unit:       "mm",
			Mean:       &mean,
			ValidCells: 2,
		}},
		Zonal:      zonal,
		Points:     points,
		ProducedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestResultMessages(t *testing.T) {
	msgs, err := resultMessages(testResult(t))
	require.NoError(t, err)

	// Two zones, two points, one summary.
	require.Len(t, msgs, 5)

	assert.Equal(t, "zone-west", string(msgs[0].Key))
	assert.Equal(t, "zone-east", string(msgs[1].Key))
	assert.Equal(t, "point-site-a", string(msgs[2].Key))
	assert.Equal(t, "point-1", string(msgs[3].Key), "anonymous feature falls back to position")
	assert.Equal(t, "summary", string(msgs[4].Key))

	assert.Equal(t, "zone", headerValue(msgs[0], "kind"))
	assert.Equal(t, "point", headerValue(msgs[2], "kind"))
	assert.Equal(t, "summary", headerValue(msgs[4], "kind"))
	for _, m := range msgs {
		assert.Equal(t, "2026-08-31T12:00:00Z", headerValue(m, "produced_at"))
	}
}

func TestResultMessages_ZonePayload(t *testing.T) {
	msgs, err := resultMessages(testResult(t))
	require.NoError(t, err)

	var f geojson.Feature
	require.NoError(t, json.Unmarshal(msgs[0].Value, &f))
	assert.Equal(t, "west", f.Properties["name"])
	assert.Equal(t, 512.5, f.Properties["ppt_mean"])

	var empty geojson.Feature
	require.NoError(t, json.Unmarshal(msgs[1].Value, &empty))
	assert.Nil(t, empty.Properties["ppt_mean"], "null zonal mean survives serialization")
}

func TestResultMessages_Summary(t *testing.T) {
	msgs, err := resultMessages(testResult(t))
	require.NoError(t, err)

	var summary struct {
		Regions   []string `json:"regions"`
		Variables []string `json:"variables"`
		Global    []struct {
			Variable  string   `json:"variable"`
			Reduction string   `json:"reduction"`
			Unit      string   `json:"unit"`
			Mean      *float64 `json:"mean"`
		} `json:"global"`
	}
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Value, &summary))

	assert.Equal(t, []string{"west", "east"}, summary.Regions)
	assert.Equal(t, []string{"ppt"}, summary.Variables)
	require.Len(t, summary.Global, 1)
	assert.Equal(t, "sum", summary.Global[0].Reduction)
	require.NotNil(t, summary.Global[0].Mean)
	assert.Equal(t, 505.2, *summary.Global[0].Mean)
}

func TestResultMessages_NoOptionalCollections(t *testing.T) {
	r := testResult(t)
	r.Zonal = nil
	r.Points = nil

	msgs, err := resultMessages(r)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "summary", string(msgs[0].Key))
}
