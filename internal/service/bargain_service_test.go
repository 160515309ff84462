package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBargain(t *testing.T) {
	f := newFixture(t)
	f.seedUser("seller", model.UserTypeSeller, 0)
	p := f.seedProduct("seller", 1000)

	b, err := f.bargains.Create(f.ctx, CreateBargainInput{
		BuyerUID:     "buyer",
		ProductID:    p.ID,
		OfferedPrice: decimal.NewFromInt(800),
		Quantity:     2,
		Message:      "  would you take 800?  ",
	})
	require.NoError(t, err)

	got := f.reload(b.ID)
	assert.Equal(t, model.BargainStatusPending, got.Status)
	assert.Equal(t, "seller", got.SellerUID)
	assert.True(t, got.OriginalPrice.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.RequestedPrice.Equal(decimal.NewFromInt(800)))
	assert.Nil(t, got.CurrentOffer)
	assert.Equal(t, 2, got.Quantity)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.ExpiresAt.Equal(f.clock.Add(7*24*time.Hour)))

	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "buyer", msgs[0].SenderUID)
	assert.Equal(t, "would you take 800?", msgs[0].Body)
	require.NotNil(t, msgs[0].OfferedPrice)
	assert.True(t, msgs[0].OfferedPrice.Equal(decimal.NewFromInt(800)))
}

func TestCreateBargainWithoutMessageLogsNothing(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 700)

	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestCreateBargainRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)
	active := f.seedProduct("seller", 1000)
	closed := f.seedProduct("seller", 1000, inactive())
	fixed := f.seedProduct("seller", 1000, noBargaining())

	tests := []struct {
		name    string
		in      CreateBargainInput
		wantErr error
	}{
		{name: "inactive product", in: CreateBargainInput{BuyerUID: "buyer", ProductID: closed.ID, OfferedPrice: decimal.NewFromInt(500), Quantity: 1}, wantErr: ErrValidation},
		{name: "bargaining disabled", in: CreateBargainInput{BuyerUID: "buyer", ProductID: fixed.ID, OfferedPrice: decimal.NewFromInt(500), Quantity: 1}, wantErr: ErrValidation},
		{name: "own product", in: CreateBargainInput{BuyerUID: "seller", ProductID: active.ID, OfferedPrice: decimal.NewFromInt(500), Quantity: 1}, wantErr: ErrValidation},
		{name: "zero quantity", in: CreateBargainInput{BuyerUID: "buyer", ProductID: active.ID, OfferedPrice: decimal.NewFromInt(500)}, wantErr: ErrValidation},
		{name: "non positive price", in: CreateBargainInput{BuyerUID: "buyer", ProductID: active.ID, OfferedPrice: decimal.NewFromInt(-1), Quantity: 1}, wantErr: ErrValidation},
		{name: "missing buyer", in: CreateBargainInput{ProductID: active.ID, OfferedPrice: decimal.NewFromInt(500), Quantity: 1}, wantErr: ErrValidation},
		{name: "unknown product", in: CreateBargainInput{BuyerUID: "buyer", ProductID: 9999, OfferedPrice: decimal.NewFromInt(500), Quantity: 1}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bargains.Create(f.ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Zero(t, f.count(&model.BargainRequest{}))
}

func TestSingleActiveBargainPerBuyerAndProduct(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	first := f.offer("buyer", p.ID, 800)

	_, err := f.bargains.Create(f.ctx, CreateBargainInput{BuyerUID: "buyer", ProductID: p.ID, OfferedPrice: decimal.NewFromInt(850), Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)

	// a countered thread is still active
	_, err = f.respond(first.ID, "seller", ActionCounter, "950")
	require.NoError(t, err)
	_, err = f.bargains.Create(f.ctx, CreateBargainInput{BuyerUID: "buyer", ProductID: p.ID, OfferedPrice: decimal.NewFromInt(850), Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)

	// another buyer is unaffected
	f.offer("other-buyer", p.ID, 900)

	_, err = f.respond(first.ID, "seller", ActionReject, "")
	require.NoError(t, err)
	second := f.offer("buyer", p.ID, 850)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLapsedBargainDoesNotBlockNewOffer(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	first := f.offer("buyer", p.ID, 800)

	// the sweeper has not run yet, the row is still pending in storage
	f.advance(DefaultBargainTTL + time.Minute)
	assert.Equal(t, model.BargainStatusPending, f.reload(first.ID).Status)

	second := f.offer("buyer", p.ID, 850)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.BargainStatusPending, second.Status)
	assert.Equal(t, model.BargainStatusExpired, f.reload(first.ID).Status)

	msgs, err := f.bargainRepo.ListMessages(f.ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsSystem)

	// the fresh offer is active again
	_, err = f.bargains.Create(f.ctx, CreateBargainInput{BuyerUID: "buyer", ProductID: p.ID, OfferedPrice: decimal.NewFromInt(900), Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNegotiationScenario(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 800)
	assert.Equal(t, model.BargainStatusPending, b.Status)
	assert.Equal(t, "20", b.DiscountPercentage().String())

	countered, err := f.respond(b.ID, "seller", ActionCounter, "900")
	require.NoError(t, err)
	assert.Equal(t, model.BargainStatusCountered, countered.Status)
	require.NotNil(t, countered.CurrentOffer)
	assert.True(t, countered.CurrentOffer.Equal(decimal.NewFromInt(900)))

	accepted, err := f.respond(b.ID, "buyer", ActionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, model.BargainStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	got := f.reload(b.ID)
	assert.Equal(t, model.BargainStatusAccepted, got.Status)
	assert.True(t, got.CurrentOffer.Equal(decimal.NewFromInt(900)))

	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].IsCounterOffer)
	assert.Equal(t, "seller", msgs[0].SenderUID)
	assert.Equal(t, "Counter offer: 900.00", msgs[0].Body)
	assert.False(t, msgs[1].IsCounterOffer)
	assert.Equal(t, "Offer accepted at 900.00", msgs[1].Body)
	require.NotNil(t, msgs[1].OfferedPrice)
	assert.True(t, msgs[1].OfferedPrice.Equal(decimal.NewFromInt(900)))
}

func TestEitherPartyMayCounterRepeatedly(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 700)

	for i, step := range []struct {
		actor string
		price string
	}{
		{"seller", "950"},
		{"seller", "940"},
		{"buyer", "800"},
		{"buyer", "820"},
	} {
		got, err := f.respond(b.ID, step.actor, ActionCounter, step.price)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.price, got.CurrentOffer.String())
	}
	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
}

func TestRespondRejectsStrangers(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 800)

	_, err := f.respond(b.ID, "intruder", ActionAccept, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.respond(b.ID, "", ActionAccept, "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.respond(424242, "buyer", ActionAccept, "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, model.BargainStatusPending, f.reload(b.ID).Status)
}

func TestRespondValidatesCounterOffer(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 800)

	for _, raw := range []string{"", "  ", "nine hundred", "0", "-50"} {
		_, err := f.respond(b.ID, "seller", ActionCounter, raw)
		assert.ErrorIs(t, err, ErrValidation, "counter %q", raw)
	}
	_, err := f.respond(b.ID, "seller", RespondAction("haggle"), "")
	assert.ErrorIs(t, err, ErrValidation)

	got := f.reload(b.ID)
	assert.Equal(t, model.BargainStatusPending, got.Status)
	assert.Nil(t, got.CurrentOffer)
	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAcceptRechecksStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000, stock(1))
	b, err := f.bargains.Create(f.ctx, CreateBargainInput{BuyerUID: "buyer", ProductID: p.ID, OfferedPrice: decimal.NewFromInt(800), Quantity: 2})
	require.NoError(t, err)

	_, err = f.respond(b.ID, "seller", ActionAccept, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, model.BargainStatusPending, f.reload(b.ID).Status)

	f.setStock(p.ID, 2)
	_, err = f.respond(b.ID, "seller", ActionAccept, "")
	assert.NoError(t, err)
}

func TestTerminalBargainsCannotMove(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)

	rejected := f.offer("buyer-a", p.ID, 800)
	_, err := f.respond(rejected.ID, "seller", ActionReject, "too low")
	require.NoError(t, err)

	expired := f.offer("buyer-b", p.ID, 800)
	completed := f.acceptedBargain("buyer-c", "seller", p.ID)
	f.seedUser("buyer-c", model.UserTypeBuyer, 5000)
	_, err = f.settle.Settle(f.ctx, completed.ID, "buyer-c", model.PaymentMethodWallet)
	require.NoError(t, err)

	f.advance(8 * 24 * time.Hour)
	ok, err := f.bargains.Expire(f.ctx, expired.ID)
	require.NoError(t, err)
	require.True(t, ok)

	cases := map[uint64]struct {
		buyer  string
		status model.BargainStatus
	}{
		rejected.ID:  {"buyer-a", model.BargainStatusRejected},
		expired.ID:   {"buyer-b", model.BargainStatusExpired},
		completed.ID: {"buyer-c", model.BargainStatusCompleted},
	}
	for id, c := range cases {
		for _, action := range []RespondAction{ActionAccept, ActionReject, ActionCounter} {
			for _, actor := range []string{c.buyer, "seller"} {
				_, err := f.respond(id, actor, action, "500")
				assert.ErrorIs(t, err, ErrInvalidState, "%s %s by %s", c.status, action, actor)
			}
		}
		assert.Equal(t, c.status, f.reload(id).Status)
	}

	again, err := f.bargains.Expire(f.ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestAcceptedBargainCannotBeAnsweredAgain(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.acceptedBargain("buyer", "seller", p.ID)

	_, err := f.respond(b.ID, "seller", ActionCounter, "950")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.respond(b.ID, "buyer", ActionReject, "")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, model.BargainStatusAccepted, f.reload(b.ID).Status)
}

func TestRespondTreatsPastDeadlineAsExpired(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 800)

	f.advance(7*24*time.Hour + time.Second)
	_, err := f.respond(b.ID, "seller", ActionAccept, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	got := f.reload(b.ID)
	assert.Equal(t, model.BargainStatusExpired, got.Status)
	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsSystem)

	// second attempt hits the stored status
	_, err = f.respond(b.ID, "buyer", ActionCounter, "850")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConcurrentResponsesHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 800)

	type attempt struct {
		actor  string
		action RespondAction
		price  string
	}
	attempts := []attempt{
		{"seller", ActionAccept, ""},
		{"seller", ActionReject, ""},
		{"buyer", ActionAccept, ""},
		{"seller", ActionAccept, ""},
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []RespondAction
		errs []error
	)
	for _, a := range attempts {
		wg.Add(1)
		go func(a attempt) {
			defer wg.Done()
			_, err := f.respond(b.ID, a.actor, a.action, a.price)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			wins = append(wins, a.action)
		}(a)
	}
	wg.Wait()

	require.Len(t, wins, 1)
	require.Len(t, errs, len(attempts)-1)
	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrInvalidState), "unexpected error %v", err)
	}
	msgs, err := f.bargainRepo.ListMessages(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestConcurrentCreatesKeepOneActiveBargain(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)

	const n = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []uint64
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(price int64) {
			defer wg.Done()
			b, err := f.bargains.Create(f.ctx, CreateBargainInput{
				BuyerUID:     "buyer",
				ProductID:    p.ID,
				OfferedPrice: decimal.NewFromInt(price),
				Quantity:     1,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			wins = append(wins, b.ID)
		}(int64(800 + i*10))
	}
	wg.Wait()

	require.Len(t, wins, 1)
	require.Len(t, errs, n-1)
	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrValidation), "unexpected error %v", err)
	}
	assert.Equal(t, int64(1), f.count(&model.BargainRequest{}))
}

func TestAddMessage(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b := f.offer("buyer", p.ID, 800)

	m, err := f.bargains.AddMessage(f.ctx, b.ID, "seller", "  is the lamp new?  ")
	require.NoError(t, err)
	assert.Equal(t, "is the lamp new?", m.Body)

	_, err = f.bargains.AddMessage(f.ctx, b.ID, "buyer", "   ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.bargains.AddMessage(f.ctx, b.ID, "stranger", "hello")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.bargains.AddMessage(f.ctx, 31337, "buyer", "hello")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, model.BargainStatusPending, f.reload(b.ID).Status)

	notes, unread, err := f.notifications.List(f.ctx, "buyer", true, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
	require.Len(t, notes, 1)
	assert.Equal(t, "bargain.message", notes[0].Type)
}

func TestGetBargainDetail(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct("seller", 1000)
	b, err := f.bargains.Create(f.ctx, CreateBargainInput{BuyerUID: "buyer", ProductID: p.ID, OfferedPrice: decimal.NewFromInt(750), Quantity: 2, Message: "deal?"})
	require.NoError(t, err)

	d, err := f.bargains.Get(f.ctx, b.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, "25", d.DiscountPercentage.String())
	assert.True(t, d.OriginalTotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, d.CurrentTotal.Equal(decimal.NewFromInt(1500)))
	assert.True(t, d.Savings.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, d.Product)
	assert.Equal(t, p.ID, d.Product.ID)
	assert.Len(t, d.Messages, 1)
	assert.False(t, d.IsExpired)

	_, err = f.respond(b.ID, "seller", ActionCounter, "800")
	require.NoError(t, err)
	d, err = f.bargains.Get(f.ctx, b.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, "20", d.DiscountPercentage.String())

	_, err = f.bargains.Get(f.ctx, b.ID, "stranger")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListBargains(t *testing.T) {
	f := newFixture(t)
	p1 := f.seedProduct("seller", 1000)
	p2 := f.seedProduct("seller", 500)
	f.offer("buyer", p1.ID, 800)
	f.offer("buyer", p2.ID, 400)
	f.offer("other", p1.ID, 900)

	mine, err := f.bargains.ListByBuyer(f.ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	received, err := f.bargains.ListBySeller(f.ctx, "seller")
	require.NoError(t, err)
	assert.Len(t, received, 3)

	none, err := f.bargains.ListBySeller(f.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAutoResponseOnCreate(t *testing.T) {
	pct := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	yes := true

	tests := []struct {
		name       string
		settings   BargainSettingsInput
		offer      int64
		wantStatus model.BargainStatus
		wantOffer  string
	}{
		{
			name:       "accept within threshold",
			settings:   BargainSettingsInput{EnableAutoAccept: &yes, AutoAcceptThreshold: pct(25)},
			offer:      800,
			wantStatus: model.BargainStatusAccepted,
		},
		{
			name:       "reject beyond threshold",
			settings:   BargainSettingsInput{EnableAutoReject: &yes, AutoRejectThreshold: pct(40)},
			offer:      500,
			wantStatus: model.BargainStatusRejected,
		},
		{
			name:       "counter at percentage off list",
			settings:   BargainSettingsInput{EnableAutoCounter: &yes, CounterOfferPercentage: pct(10)},
			offer:      600,
			wantStatus: model.BargainStatusCountered,
			wantOffer:  "900",
		},
		{
			name:       "nothing enabled",
			offer:      600,
			wantStatus: model.BargainStatusPending,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, withAutoResponse())
			f.seedUser("seller", model.UserTypeSeller, 0)
			_, err := f.settings.Update(f.ctx, "seller", tt.settings)
			require.NoError(t, err)
			p := f.seedProduct("seller", 1000)

			b := f.offer("buyer", p.ID, tt.offer)
			assert.Equal(t, tt.wantStatus, b.Status)
			got := f.reload(b.ID)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantOffer != "" {
				require.NotNil(t, got.CurrentOffer)
				assert.Equal(t, tt.wantOffer, got.CurrentOffer.String())
			}
		})
	}
}

func TestAutoResponseDisabledIgnoresSettings(t *testing.T) {
	f := newFixture(t)
	f.seedUser("seller", model.UserTypeSeller, 0)
	yes := true
	threshold := decimal.NewFromInt(50)
	_, err := f.settings.Update(f.ctx, "seller", BargainSettingsInput{EnableAutoAccept: &yes, AutoAcceptThreshold: &threshold})
	require.NoError(t, err)
	p := f.seedProduct("seller", 1000)

	b := f.offer("buyer", p.ID, 900)
	assert.Equal(t, model.BargainStatusPending, f.reload(b.ID).Status)
}
