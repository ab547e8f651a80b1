// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/orgchart/internal/domain/models"
)

// settingsDocID keys the single settings document for this deployment.
const settingsDocID = "default"

var hexSixRe = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// Store provides access to the org_settings collection, which holds one
// document of admin-editable chart settings.
type Store struct {
	c        *mongo.Collection
	sanitize *bluemonday.Policy
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("org_settings"),
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Get returns the saved settings merged over the defaults; with nothing
// saved yet it returns the defaults unchanged.
func (s *Store) Get(ctx context.Context) (models.OrgSettings, error) {
	var settings models.OrgSettings
	err := s.c.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		return models.DefaultOrgSettings(), nil
	}
	if err != nil {
		return models.OrgSettings{}, err
	}
	applyDefaults(&settings)
	return settings, nil
}

// Save normalizes and persists the settings document (upsert).
func (s *Store) Save(ctx context.Context, settings models.OrgSettings) error {
	settings.ChartTitle = strings.TrimSpace(s.sanitize.Sanitize(settings.ChartTitle))
	applyDefaults(&settings)

	now := time.Now().UTC()
	settings.UpdatedAt = &now

	filter := bson.M{"_id": settingsDocID}
	update := bson.M{"$set": settings}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx, filter, update, opts)
	return err
}

// Reset deletes the saved document so Get serves defaults again.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": settingsDocID})
	return err
}

// applyDefaults fills gaps in a partially saved document and normalizes the
// color values.
func applyDefaults(settings *models.OrgSettings) {
	defaults := models.DefaultOrgSettings()

	if settings.ChartTitle == "" {
		settings.ChartTitle = defaults.ChartTitle
	}
	settings.HeaderColor = NormalizeHexColor(settings.HeaderColor, defaults.HeaderColor)

	if settings.NodeColors == nil {
		settings.NodeColors = map[string]string{}
	}
	for level, fallback := range defaults.NodeColors {
		settings.NodeColors[level] = NormalizeHexColor(settings.NodeColors[level], fallback)
	}

	if settings.UpdateTime == "" {
		settings.UpdateTime = defaults.UpdateTime
	}
	if settings.CollapseLevel == "" {
		settings.CollapseLevel = defaults.CollapseLevel
	}
	if settings.PrintOrientation == "" {
		settings.PrintOrientation = defaults.PrintOrientation
	}
	if settings.PrintSize == "" {
		settings.PrintSize = defaults.PrintSize
	}
	if settings.ExportXlsxColumns == nil {
		settings.ExportXlsxColumns = defaults.ExportXlsxColumns
	}
	if settings.NewEmployeeMonths <= 0 {
		settings.NewEmployeeMonths = defaults.NewEmployeeMonths
	}
	if settings.MultiLineChildrenThreshold <= 0 {
		settings.MultiLineChildrenThreshold = defaults.MultiLineChildrenThreshold
	}
	settings.TopLevelUserEmail = strings.TrimSpace(settings.TopLevelUserEmail)
	settings.TopLevelUserID = strings.TrimSpace(settings.TopLevelUserID)
}

// NormalizeHexColor canonicalizes a six-digit hex color to "#RRGGBB"
// (uppercase), falling back first to the supplied default and then to black.
func NormalizeHexColor(value, fallback string) string {
	if normalized, ok := coerceHex(value); ok {
		return normalized
	}
	if normalized, ok := coerceHex(fallback); ok {
		return normalized
	}
	return "#000000"
}

func coerceHex(candidate string) (string, bool) {
	text := strings.TrimSpace(candidate)
	if text == "" {
		return "", false
	}
	text = strings.TrimPrefix(text, "#")
	if !hexSixRe.MatchString(text) {
		return "", false
	}
	return "#" + strings.ToUpper(text), true
}
