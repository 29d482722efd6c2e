package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"realty-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

func TestCollectHealth_WithNilDeps(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
	assert.Nil(t, result.Activity)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, pinger{}, nil)
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)
	assert.True(t, mr.Exists("health:global:start_time"))

	require.NoError(t, rdb.Set(ctx, "health:global:req_total", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:req_errors", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_time_total", "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:res_count", "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, "health:global:start_time", "1000000", 0).Err())

	result = CollectHealth(ctx, rdb, pinger{}, nil)
	assert.Equal(t, 10, result.Traffic.TotalRequests)
	assert.Equal(t, 8, result.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result.Traffic.AvgResponseTime)

	result = CollectHealth(ctx, rdb, pinger{err: errors.New("down")}, nil)
	assert.Equal(t, "error", result.Dependencies["database"].Status)
	assert.Equal(t, "issue", result.Status)
}

func TestGormActivityCounter(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Negotiation{}, &domain.Transaction{}))

	for _, st := range []domain.NegotiationStatus{domain.NegotiationActive, domain.NegotiationActive, domain.NegotiationRejected} {
		require.NoError(t, db.Create(&domain.Negotiation{
			PropertyID: uuid.New(), BuyerID: uuid.New(), SellerID: uuid.New(),
			Type: domain.NegotiationTypeBuy, Status: st, LastActionAt: time.Now(),
		}).Error)
	}

	result := CollectHealth(context.Background(), nil, pinger{}, &GormActivityCounter{DB: db})
	require.NotNil(t, result.Activity)
	assert.Equal(t, int64(2), result.Activity.ActiveNegotiations)
	assert.Equal(t, int64(0), result.Activity.PendingTransactions)
}
