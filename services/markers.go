package services

import (
	"html"

	"github.com/GrainArc/DropMap/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// BuildMarkers 每个投稿一个点要素，label 用于弹窗
func BuildMarkers(items []models.FoundItem) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, item := range items {
		feature := geojson.NewFeature(orb.Point{float64(item.Longitude), float64(item.Latitude)})
		feature.ID = item.ID
		feature.Properties["id"] = item.ID
		feature.Properties["title"] = item.Title
		feature.Properties["description"] = item.Description
		feature.Properties["label"] = "<b>" + html.EscapeString(item.Title) + "</b><br>" + html.EscapeString(item.Description)
		fc.Append(feature)
	}
	return fc
}
