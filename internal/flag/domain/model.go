package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
	"gorm.io/datatypes"
)

// FeatureFlag is a named on/off switch scoped to a tenant. Its Enabled
// field is the base decision evaluation falls back to when no targeting
// rule matches. Rule sets live in FlagVersion snapshots; CurrentVersionID
// points at the one evaluation uses.
type FeatureFlag struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	TenantID snowflake.ID `gorm:"column:tenant_id;not null;index:ux_feature_flags_tenant_key,unique,priority:1"`
	// Stored as flag_key: "key" is a reserved word in MySQL and the raw
	// SQL in the repository does not quote identifiers.
	Key string `gorm:"column:flag_key;type:text;not null;index:ux_feature_flags_tenant_key,unique,priority:2"`

	Name             string            `gorm:"type:text;not null"`
	Description      *string           `gorm:"type:text"`
	Enabled          bool              `gorm:"not null;default:false"`
	Archived         bool              `gorm:"not null;default:false"`
	CurrentVersionID *snowflake.ID     `gorm:"column:current_version_id"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FeatureFlag) TableName() string { return "feature_flags" }

// FlagVersion is an immutable snapshot of a flag's rule set. Rules are
// embedded as an ordered JSON array, owned by the version: once a version
// is referenced by current_version_id its contents never change; edits
// publish a new version.
type FlagVersion struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	TenantID snowflake.ID `gorm:"column:tenant_id;not null"`
	FlagID   snowflake.ID `gorm:"column:flag_id;not null;index:ux_flag_versions_flag_version,unique,priority:1"`
	Version  int          `gorm:"not null;index:ux_flag_versions_flag_version,unique,priority:2"`

	Rules     datatypes.JSON `gorm:"type:jsonb"`
	CreatedBy *string        `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (FlagVersion) TableName() string { return "flag_versions" }

// TargetingRules decodes the embedded rule array in stored order.
func (v FlagVersion) TargetingRules() ([]engine.TargetingRule, error) {
	if len(v.Rules) == 0 {
		return nil, nil
	}
	var rules []engine.TargetingRule
	if err := json.Unmarshal(v.Rules, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// EncodeRules serializes rules for storage, preserving order.
func EncodeRules(rules []engine.TargetingRule) (datatypes.JSON, error) {
	if rules == nil {
		rules = []engine.TargetingRule{}
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
