package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/rental-intake-bot/internal/config"
	"github.com/wolfman30/rental-intake-bot/internal/listings"
	"github.com/wolfman30/rental-intake-bot/internal/notify"
	"github.com/wolfman30/rental-intake-bot/internal/session"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

type nopSender struct{}

func (nopSender) SendText(context.Context, int64, string) error { return nil }

func TestBuildRedisClient(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, BuildRedisClient(ctx, &appconfig.Config{}, logging.Discard(), true))
	assert.Nil(t, BuildRedisClient(ctx, nil, logging.Discard(), true))

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := BuildRedisClient(ctx, &appconfig.Config{RedisAddr: addr}, logging.Discard(), true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	mr.Close()
	assert.Nil(t, BuildRedisClient(ctx, &appconfig.Config{RedisAddr: addr}, logging.Discard(), true))
}

func TestBuildPgxPoolDisabled(t *testing.T) {
	pool, err := BuildPgxPool(context.Background(), &appconfig.Config{}, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestBuildSessionStore(t *testing.T) {
	mem, err := BuildSessionStore(&appconfig.Config{SessionBackend: appconfig.SessionBackendMemory}, nil, logging.Discard())
	require.NoError(t, err)
	require.NotNil(t, mem.Memory)
	assert.Same(t, mem.Memory, mem.Store)

	_, err = BuildSessionStore(&appconfig.Config{SessionBackend: appconfig.SessionBackendRedis}, nil, logging.Discard())
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Discard(), false)
	t.Cleanup(func() { _ = client.Close() })
	redisStores, err := BuildSessionStore(&appconfig.Config{SessionBackend: appconfig.SessionBackendRedis}, client, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, redisStores.Memory)
	assert.IsType(t, &session.RedisStore{}, redisStores.Store)

	_, err = BuildSessionStore(&appconfig.Config{SessionBackend: "etcd"}, nil, logging.Discard())
	assert.Error(t, err)
}

func TestBuildListingRepositorySeedsMemory(t *testing.T) {
	repo := BuildListingRepository(&appconfig.Config{ListingsSeed: true}, nil, logging.Discard())
	found, err := repo.FindRecent(context.Background(), listings.Filter{CityCode: "benidorm"}, listings.UserLimit)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	empty := BuildListingRepository(&appconfig.Config{}, nil, logging.Discard())
	found, err = empty.FindRecent(context.Background(), listings.Filter{}, listings.AdminLimit)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestBuildEmailSender(t *testing.T) {
	ctx := context.Background()

	sender, err := BuildEmailSender(ctx, &appconfig.Config{}, nil, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{NotifyEmail: "ops@example.com", EmailProvider: appconfig.EmailProviderSendGrid}, nil, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.StubEmailSender{}, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{
		NotifyEmail:    "ops@example.com",
		EmailProvider:  appconfig.EmailProviderSendGrid,
		SendGridAPIKey: "key",
		EmailFrom:      "bot@example.com",
	}, nil, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.SendGridSender{}, sender)

	sesCfg := &appconfig.Config{NotifyEmail: "ops@example.com", EmailProvider: appconfig.EmailProviderSES, AWSRegion: "eu-west-1"}
	sender, err = BuildEmailSender(ctx, sesCfg, func(context.Context) (*sesv2.Client, error) {
		return sesv2.New(sesv2.Options{Region: "eu-west-1"}), nil
	}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)

	_, err = BuildEmailSender(ctx, sesCfg, func(context.Context) (*sesv2.Client, error) {
		return nil, errors.New("no credentials")
	}, logging.Discard())
	assert.Error(t, err)

	_, err = BuildEmailSender(ctx, sesCfg, nil, logging.Discard())
	assert.Error(t, err)
}

func TestBuildDispatcher(t *testing.T) {
	cfg := &appconfig.Config{AdminUserID: 1, WorkChatID: -100, NotifyEmail: "ops@example.com"}

	d, err := BuildDispatcher(cfg, nopSender{}, notify.NewStubEmailSender(logging.Discard()), nil, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "work_chat", "email"}, d.Recipients())

	d, err = BuildDispatcher(&appconfig.Config{AdminUserID: 1}, nopSender{}, nil, nil, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, d.Recipients())

	_, err = BuildDispatcher(cfg, nil, nil, nil, logging.Discard())
	assert.Error(t, err)
}
