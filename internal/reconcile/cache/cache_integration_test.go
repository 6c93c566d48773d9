//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fleetworks/internal/reconcile/cache"
	"fleetworks/internal/reconcile/source"
	"fleetworks/pkg/domain"
	"fleetworks/pkg/testutil/containers"
)

type CacheRedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Cache
	ctx   context.Context
}

func TestCacheRedisSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheRedisSuite))
}

func (s *CacheRedisSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()

	c, err := cache.New(s.redis.Client, time.Minute, nil, nil)
	s.Require().NoError(err)
	s.cache = c
}

func (s *CacheRedisSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

// countingHistory records how many times the upstream was actually hit.
type countingHistory struct {
	calls  int
	result *source.VehicleHistory
}

func (c *countingHistory) Lookup(_ context.Context, _ domain.VRM) (*source.VehicleHistory, error) {
	c.calls++
	return c.result, nil
}

type countingRegistration struct {
	calls  int
	result *source.RegistrationRecord
}

func (c *countingRegistration) Lookup(_ context.Context, _ domain.VRM) (*source.RegistrationRecord, error) {
	c.calls++
	return c.result, nil
}

// ============================================================================
// Test-history caching
// ============================================================================

func (s *CacheRedisSuite) TestHistoryLookupServedFromCacheWithinTTL() {
	firstUsed := time.Date(2019, 3, 1, 0, 0, 0, 0, time.UTC)
	upstream := &countingHistory{result: &source.VehicleHistory{
		Registration:  domain.VRM("AB12CDE"),
		Make:          "FORD",
		Model:         "TRANSIT",
		FirstUsedDate: &firstUsed,
	}}
	client := s.cache.TestHistory(upstream)

	first, err := client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)
	second, err := client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)

	s.Equal(1, upstream.calls, "second lookup should not reach upstream")
	s.Equal(first.Make, second.Make)
	s.Require().NotNil(second.FirstUsedDate)
	s.True(firstUsed.Equal(*second.FirstUsedDate))
}

func (s *CacheRedisSuite) TestHistoryLookupsForDifferentAssetsDoNotCollide() {
	upstream := &countingHistory{result: &source.VehicleHistory{Registration: domain.VRM("AB12CDE")}}
	client := s.cache.TestHistory(upstream)

	_, err := client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)
	_, err = client.Lookup(s.ctx, domain.VRM("XY99ZZZ"))
	s.Require().NoError(err)

	s.Equal(2, upstream.calls)
}

func (s *CacheRedisSuite) TestNilHistoryResultIsNotCached() {
	upstream := &countingHistory{result: nil}
	client := s.cache.TestHistory(upstream)

	res, err := client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)
	s.Nil(res)

	_, err = client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)
	s.Equal(2, upstream.calls, "no-history answers are re-asked, not cached")
}

// ============================================================================
// Registration caching
// ============================================================================

func (s *CacheRedisSuite) TestRegistrationLookupServedFromCacheWithinTTL() {
	taxDue := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	upstream := &countingRegistration{result: &source.RegistrationRecord{
		Registration: domain.VRM("AB12CDE"),
		Make:         "FORD",
		TaxDueDate:   &taxDue,
	}}
	client := s.cache.Registration(upstream)

	_, err := client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)
	cached, err := client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)

	s.Equal(1, upstream.calls)
	s.Require().NotNil(cached.TaxDueDate)
	s.True(taxDue.Equal(*cached.TaxDueDate))
}

func (s *CacheRedisSuite) TestEntryExpiresAfterTTL() {
	short, err := cache.New(s.redis.Client, time.Second, nil, nil)
	s.Require().NoError(err)

	upstream := &countingRegistration{result: &source.RegistrationRecord{Registration: domain.VRM("AB12CDE")}}
	client := short.Registration(upstream)

	_, err = client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = client.Lookup(s.ctx, domain.VRM("AB12CDE"))
	s.Require().NoError(err)
	s.Equal(2, upstream.calls, "expired entry should fall through to upstream")
}
