package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpwatch/pkg/indexer/types"
)

func TestRegistryNormalizesAddressAcrossEntryPoints(t *testing.T) {
	traders := &fakeTraderDao{}
	reg := NewRegistryService(traders)

	// 配置种子带空白和大小写混排
	require.NoError(t, reg.SeedTracked(context.Background(), []string{" 0xAbCdEf "}))

	// 排行榜回来的是另一种大小写，不能落成第二条记录
	require.NoError(t, reg.RegisterFromLeaderboard(context.Background(), []types.TraderPerformance{
		{EthAddress: "0xABCDEF", DisplayName: "whale-one", AccountValue: 1000000},
	}))

	require.Len(t, traders.traders, 1)
	assert.Equal(t, "0xabcdef", traders.traders[0].Address)
	assert.Equal(t, "whale-one", traders.traders[0].DisplayName)

	// 任意大小写查询都命中同一条
	tr, err := reg.GetOrCreate(context.Background(), "0xAbcDEF", 0)
	require.NoError(t, err)
	assert.Equal(t, traders.traders[0].Id, tr.Id)
}
