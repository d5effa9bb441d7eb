package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/repo"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultChain = "arbitrum"

// WalletService 钱包管理
type WalletService struct {
	logger *zap.Logger

	*orz.Service
	*repo.WalletRepo
}

func NewWalletService(db *gorm.DB, logger *zap.Logger) *WalletService {
	return &WalletService{
		logger:     logger,
		Service:    orz.NewService(db),
		WalletRepo: repo.NewWalletRepo(db),
	}
}

type AddWalletRequest struct {
	Address   string `json:"address" validate:"required"`
	Chain     string `json:"chain"`
	IsDefault bool   `json:"is_default"`
}

// ChecksumAddress 校验地址并转为 EIP-55 格式
func ChecksumAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", xe.ErrInvalidWalletAddress
	}
	return common.HexToAddress(address).Hex(), nil
}

// Add 添加钱包。链上第一个钱包或显式设置默认时，清除同链其它钱包的默认标记
func (s *WalletService) Add(ctx context.Context, req AddWalletRequest) (*models.Wallet, error) {
	address, err := ChecksumAddress(req.Address)
	if err != nil {
		return nil, err
	}
	chain := strings.ToLower(strings.TrimSpace(req.Chain))
	if chain == "" {
		chain = DefaultChain
	}

	wallet := &models.Wallet{
		ID:      ulid.Make().String(),
		Address: address,
		Chain:   chain,
	}
	err = s.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.WalletRepo.FindByAddress(ctx, address); err == nil {
			return xe.ErrWalletExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		count, err := s.WalletRepo.CountByChain(ctx, chain)
		if err != nil {
			return err
		}
		wallet.IsDefault = req.IsDefault || count == 0
		if wallet.IsDefault {
			if err := s.WalletRepo.ClearDefault(ctx, chain); err != nil {
				return fmt.Errorf("failed to clear default wallet: %w", err)
			}
		}
		return s.WalletRepo.Create(ctx, wallet)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet added",
		zap.String("address", wallet.Address),
		zap.String("chain", wallet.Chain),
		zap.Bool("is_default", wallet.IsDefault))
	return wallet, nil
}

func (s *WalletService) List(ctx context.Context) ([]models.Wallet, error) {
	return s.WalletRepo.FindAllOrdered(ctx)
}
