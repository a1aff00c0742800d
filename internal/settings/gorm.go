package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/objmap/mapcore/internal/model"
	"github.com/objmap/mapcore/internal/sets"
	"github.com/objmap/mapcore/pkg/core"
)

// GormRepository stores settings in the client_settings table.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository on a migrated database.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Load returns the saved settings of a client. The bool is false when the
// client has none.
func (r *GormRepository) Load(ctx context.Context, clientID uuid.UUID) (Settings, bool, error) {
	var rec model.ClientSettings
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Settings{}, false, nil
	}
	if err != nil {
		return Settings{}, false, err
	}
	s, err := fromRecord(rec)
	if err != nil {
		return Settings{}, false, err
	}
	return s, true, nil
}

// Save creates or replaces the settings of a client.
func (r *GormRepository) Save(ctx context.Context, clientID uuid.UUID, s Settings) error {
	db := r.db.WithContext(ctx)

	var rec model.ClientSettings
	err := db.Where("client_id = ?", clientID).First(&rec).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	rec.ClientID = clientID
	if err := toRecord(s, &rec); err != nil {
		return err
	}
	return db.Save(&rec).Error
}

func toRecord(s Settings, rec *model.ClientSettings) error {
	shown, err := json.Marshal(s.ShownGroups)
	if err != nil {
		return fmt.Errorf("failed to encode shown groups: %w", err)
	}
	saved := make([]model.SavedSearchGroup, len(s.SearchGroups))
	for i, g := range s.SearchGroups {
		saved[i] = model.SavedSearchGroup{Query: g.Query, Label: g.Label, Enabled: g.Enabled}
	}
	groups, err := json.Marshal(saved)
	if err != nil {
		return fmt.Errorf("failed to encode search groups: %w", err)
	}

	rec.ShownGroups = datatypes.JSON(shown)
	rec.SearchGroups = datatypes.JSON(groups)
	rec.DrawLayerGeoJSON = s.DrawLayerGeoJSON
	rec.HardMode = s.HardMode
	if s.LastView != nil {
		rec.LastCenter = geom.XY{X: s.LastView.Center.X, Y: s.LastView.Center.Z}.AsPoint()
		rec.LastZoom = s.LastView.Zoom
	} else {
		rec.LastCenter = geom.Point{}
		rec.LastZoom = 0
	}
	return nil
}

func fromRecord(rec model.ClientSettings) (Settings, error) {
	s := Settings{
		ShownGroups:      sets.New[string](),
		DrawLayerGeoJSON: rec.DrawLayerGeoJSON,
		HardMode:         rec.HardMode,
	}
	if len(rec.ShownGroups) > 0 {
		if err := json.Unmarshal(rec.ShownGroups, &s.ShownGroups); err != nil {
			return Settings{}, fmt.Errorf("invalid shown groups: %w", err)
		}
	}
	if len(rec.SearchGroups) > 0 {
		var saved []model.SavedSearchGroup
		if err := json.Unmarshal(rec.SearchGroups, &saved); err != nil {
			return Settings{}, fmt.Errorf("invalid search groups: %w", err)
		}
		for _, g := range saved {
			s.SearchGroups = append(s.SearchGroups, SearchGroup{Query: g.Query, Label: g.Label, Enabled: g.Enabled})
		}
	}
	if xy, ok := rec.LastCenter.XY(); ok {
		s.LastView = &core.Viewport{Center: core.XZ{X: xy.X, Z: xy.Y}, Zoom: rec.LastZoom}
	}
	return s, nil
}
