package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/bargain-backend/internal/db"
	"github.com/shinyyama/bargain-backend/internal/events"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	clock time.Time

	txr           repository.TxRunner
	bargainRepo   repository.BargainRepository
	productRepo   repository.ProductRepository
	userRepo      repository.UserRepository
	walletRepo    repository.WalletRepository
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	settingsRepo  repository.BargainSettingsRepository
	notifyRepo    repository.NotificationRepository
	notifications NotificationService

	wallet   WalletService
	bargains *bargainService
	settle   *settlementService
	orders   OrderService
	settings BargainSettingsService
}

type fixtureOption func(*BargainOptions)

func withAutoResponse() fixtureOption {
	return func(o *BargainOptions) { o.AutoResponse = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    gdb,
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	log := zap.NewNop()

	f.txr = repository.NewTxRunner(gdb)
	f.bargainRepo = repository.NewBargainRepository(gdb)
	f.productRepo = repository.NewProductRepository(gdb)
	f.userRepo = repository.NewUserRepository(gdb)
	f.walletRepo = repository.NewWalletRepository(gdb)
	f.orderRepo = repository.NewOrderRepository(gdb)
	f.cartRepo = repository.NewCartRepository(gdb)
	f.settingsRepo = repository.NewBargainSettingsRepository(gdb)
	f.notifyRepo = repository.NewNotificationRepository(gdb)
	f.notifications = NewNotificationService(f.notifyRepo, events.NoopPublisher{}, log)

	f.wallet = NewWalletService(f.txr, f.userRepo, f.walletRepo, log)
	bopts := BargainOptions{Now: now}
	for _, o := range opts {
		o(&bopts)
	}
	f.bargains = NewBargainService(f.txr, f.bargainRepo, f.productRepo, f.settingsRepo, f.notifications, log, bopts).(*bargainService)
	f.settle = NewSettlementService(f.txr, f.bargainRepo, f.productRepo, f.userRepo, f.orderRepo, f.cartRepo, f.wallet, f.notifications, log).(*settlementService)
	f.settle.now = now
	f.orders = NewOrderService(f.txr, f.orderRepo, f.productRepo, f.wallet, log)
	f.settings = NewBargainSettingsService(f.settingsRepo, f.userRepo)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) seedUser(uid string, typ model.UserType, balance int64) *model.User {
	f.t.Helper()
	u := &model.User{
		UID:           uid,
		Username:      uid,
		Email:         uid + "@example.com",
		FullName:      "User " + uid,
		UserType:      typ,
		Address:       "1 Market St",
		City:          "Dhaka",
		WalletBalance: decimal.NewFromInt(balance),
	}
	require.NoError(f.t, f.userRepo.Create(f.ctx, u))
	return u
}

type productOption func(*model.Product)

func inactive() productOption     { return func(p *model.Product) { p.IsActive = false } }
func noBargaining() productOption { return func(p *model.Product) { p.AllowBargaining = false } }
func stock(n int) productOption   { return func(p *model.Product) { p.StockQuantity = n } }

func (f *fixture) seedProduct(seller string, price int64, opts ...productOption) *model.Product {
	f.t.Helper()
	p := &model.Product{
		SellerUID:       seller,
		Name:            "Handmade lamp",
		Price:           decimal.NewFromInt(price),
		StockQuantity:   5,
		IsActive:        true,
		AllowBargaining: true,
	}
	for _, o := range opts {
		o(p)
	}
	require.NoError(f.t, f.db.Create(p).Error)
	// gorm skips zero-valued bools that carry a default on insert.
	require.NoError(f.t, f.db.Model(p).Updates(map[string]interface{}{
		"is_active":        p.IsActive,
		"allow_bargaining": p.AllowBargaining,
		"stock_quantity":   p.StockQuantity,
	}).Error)
	return p
}

func (f *fixture) setStock(productID uint64, n int) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&model.Product{}).Where("id = ?", productID).Update("stock_quantity", n).Error)
}

func (f *fixture) offer(buyer string, productID uint64, price int64) *model.BargainRequest {
	f.t.Helper()
	b, err := f.bargains.Create(f.ctx, CreateBargainInput{
		BuyerUID:     buyer,
		ProductID:    productID,
		OfferedPrice: decimal.NewFromInt(price),
		Quantity:     1,
	})
	require.NoError(f.t, err)
	return b
}

func (f *fixture) respond(id uint64, actor string, action RespondAction, counter string) (*model.BargainRequest, error) {
	return f.bargains.Respond(f.ctx, RespondInput{BargainID: id, ActorUID: actor, Action: action, CounterOffer: counter})
}

func (f *fixture) reload(id uint64) *model.BargainRequest {
	f.t.Helper()
	b, err := f.bargainRepo.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) balance(uid string) decimal.Decimal {
	f.t.Helper()
	u, err := f.userRepo.FindByUID(f.ctx, uid)
	require.NoError(f.t, err)
	return u.WalletBalance
}

func (f *fixture) count(m interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(m).Count(&n).Error)
	return n
}

// acceptedBargain walks a fresh bargain to accepted: offer 800, counter 900, buyer accepts.
func (f *fixture) acceptedBargain(buyer, seller string, productID uint64) *model.BargainRequest {
	f.t.Helper()
	b := f.offer(buyer, productID, 800)
	_, err := f.respond(b.ID, seller, ActionCounter, "900")
	require.NoError(f.t, err)
	accepted, err := f.respond(b.ID, buyer, ActionAccept, "")
	require.NoError(f.t, err)
	return accepted
}
