package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpwatch/conf"
	"perpwatch/pkg/indexer/types"
)

func row(address string, accountValue, dayVlm float64) types.TraderPerformance {
	return types.TraderPerformance{
		EthAddress:   address,
		AccountValue: accountValue,
		Day:          types.PeriodPerformance{Vlm: dayVlm},
	}
}

func TestFilterCandidates(t *testing.T) {
	cfg := conf.DiscoveryConfig{
		MinAccountValue: 1_000_000,
		MinDayVolume:    100_000,
		TopN:            2,
	}

	rows := []types.TraderPerformance{
		row("0xsmall", 500_000, 200_000),   // 账户价值不达标
		row("0xquiet", 2_000_000, 50_000),  // 日成交量不达标
		row("", 9_000_000, 900_000),        // 没有地址
		row("0xmid", 1_500_000, 300_000),
		row("0xbig", 5_000_000, 800_000),
		row("0xhuge", 8_000_000, 700_000),
	}

	kept := filterCandidates(rows, cfg)
	require.Len(t, kept, 2)

	// 过滤后按账户价值降序截断到 TopN
	assert.Equal(t, "0xhuge", kept[0].EthAddress)
	assert.Equal(t, "0xbig", kept[1].EthAddress)
}

func TestFilterCandidatesDeterministicOnEqualValue(t *testing.T) {
	cfg := conf.DiscoveryConfig{TopN: 3}
	rows := []types.TraderPerformance{
		row("0xccc", 100, 1),
		row("0xaaa", 100, 1),
		row("0xbbb", 100, 1),
	}

	kept := filterCandidates(rows, cfg)
	require.Len(t, kept, 3)
	assert.Equal(t, "0xaaa", kept[0].EthAddress)
	assert.Equal(t, "0xbbb", kept[1].EthAddress)
	assert.Equal(t, "0xccc", kept[2].EthAddress)
}
