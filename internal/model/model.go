package model

import (
	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ClientSettings{},
}

////////////////////////
// SETTINGS MODELS
////////////////////////

// ClientSettings is the persisted map settings of one browser client
type ClientSettings struct {
	gorm.Model
	ClientID         uuid.UUID      `json:"clientId" gorm:"type:uuid;uniqueIndex"`
	ShownGroups      datatypes.JSON `json:"shownGroups"`
	SearchGroups     datatypes.JSON `json:"searchGroups"`
	DrawLayerGeoJSON string         `json:"drawLayerGeojson" gorm:"type:text"`
	HardMode         bool           `json:"hardMode"`
	// LastCenter is on the XZ map plane, X as x and Z as y.
	LastCenter geom.Point `json:"lastCenter"`
	LastZoom   int        `json:"lastZoom"`
}

func (*ClientSettings) TableName() string {
	return "client_settings"
}

// SavedSearchGroup is one entry of ClientSettings.SearchGroups
type SavedSearchGroup struct {
	Query   string `json:"query"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}
