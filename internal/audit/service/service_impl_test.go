package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/flaghub/internal/audit/domain"
	"github.com/smallbiznis/flaghub/internal/audit/repository"
	"github.com/smallbiznis/flaghub/internal/auditcontext"
	"github.com/smallbiznis/flaghub/pkg/db/pagination"
	"github.com/smallbiznis/flaghub/pkg/tenantctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuditService(t *testing.T) (domain.Service, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	ctx := tenantctx.WithTenantID(context.Background(), node.Generate())
	return svc, ctx
}

func TestAuditLog_RecordAndList(t *testing.T) {
	svc, ctx := newAuditService(t)

	targetID := "12345"
	err := svc.AuditLog(ctx, nil, "user", nil, domain.ActionFlagCreate, domain.TargetTypeFlag, &targetID, map[string]any{
		"key": "new-checkout",
	})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, domain.ActionFlagCreate, entry.Action)
	assert.Equal(t, domain.TargetTypeFlag, entry.TargetType)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, targetID, *entry.TargetID)
	assert.Equal(t, "new-checkout", entry.Metadata["key"])
}

func TestAuditLog_ActorFromContext(t *testing.T) {
	svc, ctx := newAuditService(t)

	ctx = auditcontext.WithActor(ctx, "api_key", "key-7")
	ctx = auditcontext.WithIPAddress(ctx, "10.0.0.7")
	ctx = auditcontext.WithRequestID(ctx, "req-42")

	err := svc.AuditLog(ctx, nil, "", nil, domain.ActionFlagUpdate, domain.TargetTypeFlag, nil, nil)
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "api_key", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "key-7", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.7", *entry.IPAddress)
	assert.Equal(t, "req-42", entry.Metadata["request_id"])
}

func TestAuditLog_EmptyActionRejected(t *testing.T) {
	svc, ctx := newAuditService(t)

	err := svc.AuditLog(ctx, nil, "", nil, "  ", domain.TargetTypeFlag, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestList_FilterByAction(t *testing.T) {
	svc, ctx := newAuditService(t)

	require.NoError(t, svc.AuditLog(ctx, nil, "user", nil, domain.ActionFlagCreate, domain.TargetTypeFlag, nil, nil))
	require.NoError(t, svc.AuditLog(ctx, nil, "user", nil, domain.ActionFlagArchive, domain.TargetTypeFlag, nil, nil))

	resp, err := svc.List(ctx, domain.ListAuditLogRequest{Action: domain.ActionFlagArchive})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, domain.ActionFlagArchive, resp.AuditLogs[0].Action)
}

func TestList_CursorPagination(t *testing.T) {
	svc, ctx := newAuditService(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, nil, "user", nil, domain.ActionFlagUpdate, domain.TargetTypeFlag, nil, nil))
	}

	first, err := svc.List(ctx, domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	assert.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
}

func TestList_InvalidPageToken(t *testing.T) {
	svc, ctx := newAuditService(t)

	_, err := svc.List(ctx, domain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-base64!!"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestList_InvalidTimeRange(t *testing.T) {
	svc, ctx := newAuditService(t)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err := svc.List(ctx, domain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestList_TenantRequired(t *testing.T) {
	svc, _ := newAuditService(t)

	_, err := svc.List(context.Background(), domain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)
}
