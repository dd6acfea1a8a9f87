package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perpwatch/internal/dao"
	"perpwatch/internal/model/entity"
	"perpwatch/pkg/indexer/types"
)

// RegistryService 交易员注册表。身份键 (address, sub_account) 不可变，
// 交易员只停用不删除。
type RegistryService struct {
	traders dao.TraderDao
}

func NewRegistryService(traders dao.TraderDao) *RegistryService {
	return &RegistryService{traders: traders}
}

// normalizeAddress 所有入口统一小写，混合大小写的同一地址只对应一条记录
func normalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func (s *RegistryService) GetOrCreate(ctx context.Context, address string, subAccount int) (*entity.Trader, error) {
	return s.traders.GetOrCreate(ctx, normalizeAddress(address), subAccount)
}

func (s *RegistryService) ListActive(ctx context.Context) ([]*entity.Trader, error) {
	return s.traders.ListActive(ctx)
}

func (s *RegistryService) Deactivate(ctx context.Context, traderId uint) error {
	return s.traders.Deactivate(ctx, traderId)
}

// SeedTracked 把配置里的种子地址注册进跟踪表，启动时调用一次。
// 地址统一按小写处理。
func (s *RegistryService) SeedTracked(ctx context.Context, addresses []string) error {
	for _, addr := range addresses {
		addr = normalizeAddress(addr)
		if addr == "" {
			continue
		}
		if _, err := s.traders.GetOrCreate(ctx, addr, 0); err != nil {
			return fmt.Errorf("seed trader %s: %w", addr, err)
		}
	}
	return nil
}

// RegisterFromLeaderboard 将排行榜行注册为跟踪对象。
// 已存在的交易员只刷新昵称和账户价值，聚合与水位不受影响。
func (s *RegistryService) RegisterFromLeaderboard(ctx context.Context, rows []types.TraderPerformance) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now()
	traders := make([]*entity.Trader, 0, len(rows))
	for _, row := range rows {
		traders = append(traders, &entity.Trader{
			Address:       normalizeAddress(row.EthAddress),
			SubAccount:    0,
			DisplayName:   row.DisplayName,
			Active:        true,
			FirstSeenAt:   now,
			LeaderboardAV: row.AccountValue,
		})
	}
	return s.traders.UpsertBatch(ctx, traders)
}
