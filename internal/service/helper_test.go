package service

import (
	"club-marketplace/internal/config"
	"club-marketplace/internal/model"
	"club-marketplace/internal/repository"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Club{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.RewardEntry{},
		&model.Payout{},
	))

	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func defaultTestConfig() *config.Config {
	return &config.Config{
		Shipping: config.Shipping{
			LocalRegion: "Dhaka",
			LocalRate:   60,
			RemoteRate:  120,
		},
		Rewards: config.Rewards{
			SaleAmountStep:       100,
			SalePointsPerStep:    10,
			FiveStarReviewPoints: 20,
			FastShippingPoints:   5,
			FastShippingHours:    24,
			FirstSaleBonus:       50,
			Milestone10Bonus:     100,
			Milestone50Bonus:     500,
			Milestone100Bonus:    1000,
		},
		Tiers: config.Tiers{
			SilverThreshold:   500,
			GoldThreshold:     1500,
			PlatinumThreshold: 5000,
		},
	}
}

type fixture struct {
	db *gorm.DB

	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	clubRepo    repository.ClubRepository
	rewardRepo  repository.RewardRepository
	payoutRepo  repository.PayoutRepository

	resolver  *TierResolver
	rewardSvc RewardService
	orderSvc  OrderService
	clubSvc   ClubService
	payoutSvc PayoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	cfg := defaultTestConfig()
	log := testLogger()

	f := &fixture{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		clubRepo:    repository.NewClubRepository(db),
		rewardRepo:  repository.NewRewardRepository(db),
		payoutRepo:  repository.NewPayoutRepository(db),
	}

	f.resolver = NewTierResolver(cfg.Commission, cfg.Tiers, log)
	f.rewardSvc = NewRewardService(db, cfg.Rewards, f.resolver, f.clubRepo, f.rewardRepo, log)
	f.orderSvc = NewOrderService(db, cfg.Shipping, cfg.Rewards, f.productRepo, f.orderRepo, f.clubRepo, f.rewardSvc, log)
	f.clubSvc = NewClubService(f.resolver, f.clubRepo)
	f.payoutSvc = NewPayoutService(db, f.resolver, f.clubRepo, f.payoutRepo, log)

	return f
}

func (f *fixture) createClub(t *testing.T, name string) *model.Club {
	t.Helper()

	club := &model.Club{Name: name, Tier: model.TierBronze}
	require.NoError(t, f.db.Create(club).Error)
	return club
}

func (f *fixture) createProduct(t *testing.T, clubID uint, name string, price, stock int64) *model.Product {
	t.Helper()

	product := &model.Product{
		ClubID: clubID,
		Name:   name,
		Price:  price,
		Stock:  stock,
		Status: model.ProductActive,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *fixture) reloadClub(t *testing.T, clubID uint) *model.Club {
	t.Helper()

	var club model.Club
	require.NoError(t, f.db.First(&club, clubID).Error)
	return &club
}

func (f *fixture) reloadProduct(t *testing.T, productID uint) *model.Product {
	t.Helper()

	var product model.Product
	require.NoError(t, f.db.First(&product, productID).Error)
	return &product
}

func testDelivery() DeliveryInfo {
	return DeliveryInfo{
		RecipientName:  "Rahim Uddin",
		RecipientPhone: "01700000000",
		AddressLine:    "House 7, Road 2",
		City:           "Dhaka",
		Region:         "Dhaka",
	}
}
