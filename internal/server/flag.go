package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/flaghub/internal/audit/domain"
	"github.com/smallbiznis/flaghub/internal/evaluation/engine"
	flagdomain "github.com/smallbiznis/flaghub/internal/flag/domain"
)

type flagResponse struct {
	ID               string         `json:"id"`
	Key              string         `json:"key"`
	Name             string         `json:"name"`
	Description      *string        `json:"description,omitempty"`
	Enabled          bool           `json:"enabled"`
	Archived         bool           `json:"archived"`
	CurrentVersionID *string        `json:"current_version_id,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type versionResponse struct {
	ID        string                 `json:"id"`
	FlagID    string                 `json:"flag_id"`
	Version   int                    `json:"version"`
	Rules     []engine.TargetingRule `json:"rules"`
	CreatedBy *string                `json:"created_by,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func toFlagResponse(f *flagdomain.FeatureFlag) flagResponse {
	resp := flagResponse{
		ID:          f.ID.String(),
		Key:         f.Key,
		Name:        f.Name,
		Description: f.Description,
		Enabled:     f.Enabled,
		Archived:    f.Archived,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if f.CurrentVersionID != nil && *f.CurrentVersionID != 0 {
		current := f.CurrentVersionID.String()
		resp.CurrentVersionID = &current
	}
	if len(f.Metadata) > 0 {
		resp.Metadata = map[string]any(f.Metadata)
	}
	return resp
}

func toVersionResponse(v *flagdomain.FlagVersion) (versionResponse, error) {
	rules, err := v.TargetingRules()
	if err != nil {
		return versionResponse{}, err
	}
	if rules == nil {
		rules = []engine.TargetingRule{}
	}
	return versionResponse{
		ID:        v.ID.String(),
		FlagID:    v.FlagID.String(),
		Version:   v.Version,
		Rules:     rules,
		CreatedBy: v.CreatedBy,
		CreatedAt: v.CreatedAt,
	}, nil
}

func (s *Server) CreateFlag(c *gin.Context) {
	var req flagdomain.CreateFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.flagSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, auditdomain.ActionFlagCreate, auditdomain.TargetTypeFlag, &targetID, map[string]any{
			"flag_id": targetID,
			"key":     resp.Key,
			"enabled": resp.Enabled,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": toFlagResponse(resp)})
}

func (s *Server) ListFlags(c *gin.Context) {
	var query struct {
		Key      string `form:"key"`
		Enabled  string `form:"enabled"`
		Archived string `form:"archived"`
		SortBy   string `form:"sort_by"`
		OrderBy  string `form:"order_by"`
		PageSize int    `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	enabled, err := parseOptionalBool(query.Enabled)
	if err != nil {
		AbortWithError(c, newValidationError("enabled", "invalid_enabled", "invalid enabled"))
		return
	}
	archived, err := parseOptionalBool(query.Archived)
	if err != nil {
		AbortWithError(c, newValidationError("archived", "invalid_archived", "invalid archived"))
		return
	}

	items, err := s.flagSvc.List(c.Request.Context(), flagdomain.ListFlagsRequest{
		Key:      strings.TrimSpace(query.Key),
		Enabled:  enabled,
		Archived: archived,
		SortBy:   strings.TrimSpace(query.SortBy),
		OrderBy:  strings.TrimSpace(query.OrderBy),
		PageSize: query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]flagResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toFlagResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFlag(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	resp, err := s.flagSvc.Get(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toFlagResponse(resp)})
}

func (s *Server) UpdateFlag(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))

	var req flagdomain.UpdateFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.flagSvc.Update(c.Request.Context(), key, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, auditdomain.ActionFlagUpdate, auditdomain.TargetTypeFlag, &targetID, map[string]any{
			"flag_id": targetID,
			"key":     resp.Key,
			"enabled": resp.Enabled,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": toFlagResponse(resp)})
}

func (s *Server) ArchiveFlag(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	resp, err := s.flagSvc.Archive(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, auditdomain.ActionFlagArchive, auditdomain.TargetTypeFlag, &targetID, map[string]any{
			"flag_id": targetID,
			"key":     resp.Key,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": toFlagResponse(resp)})
}

func (s *Server) PublishFlagVersion(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))

	var req flagdomain.PublishVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	version, err := s.flagSvc.PublishVersion(c.Request.Context(), key, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := toVersionResponse(version)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.ObserveVersionPublished(version.TenantID.String())

	if s.auditSvc != nil {
		targetID := version.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, auditdomain.ActionFlagPublish, auditdomain.TargetTypeVersion, &targetID, map[string]any{
			"flag_key": key,
			"version":  version.Version,
			"rules":    len(resp.Rules),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFlagVersions(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	versions, err := s.flagSvc.ListVersions(c.Request.Context(), key)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]versionResponse, 0, len(versions))
	for i := range versions {
		item, err := toVersionResponse(&versions[i])
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp = append(resp, item)
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetFlagVersion(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	number, err := strconv.Atoi(strings.TrimSpace(c.Param("version")))
	if err != nil || number <= 0 {
		AbortWithError(c, newValidationError("version", "invalid_version", "invalid version"))
		return
	}

	version, err := s.flagSvc.GetVersion(c.Request.Context(), key, number)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := toVersionResponse(version)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
